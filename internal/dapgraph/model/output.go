package model

import (
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
	"github.com/rivo/uniseg"
)

// MaxOutputPreviewGraphemes bounds the length of Output.Preview(), the
// truncated form used by structured logging (§1.2: uniseg-based
// grapheme-aware truncation rather than a raw byte slice).
const MaxOutputPreviewGraphemes = 200

// Output is one line of adapter output, routed to its owning Session
// (§3).
type Output struct {
	graph.Base
	Text     string
	Category OutputCategory
	Seq      int
}

func newOutput(sess *Session, category OutputCategory, text string, seq int) *Output {
	return &Output{
		Base:     graph.NewBase(outputURI(sess.ID(), seq)),
		Text:     text,
		Category: category,
		Seq:      seq,
	}
}

// Preview truncates Text at a grapheme-cluster boundary for log lines,
// never splitting a multi-byte cluster.
func (o *Output) Preview() string {
	if uniseg.GraphemeClusterCount(o.Text) <= MaxOutputPreviewGraphemes {
		return o.Text
	}
	gr := uniseg.NewGraphemes(o.Text)
	var out []rune
	for n := 0; n < MaxOutputPreviewGraphemes && gr.Next(); n++ {
		out = append(out, gr.Runes()...)
	}
	return string(out) + "…"
}
