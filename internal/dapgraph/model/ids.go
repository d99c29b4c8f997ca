package model

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

// consonants and vowels used by the CVCVC session-id generator (§3,
// glossary "CVCVC word"): a human-speakable, deterministic 5-character
// identifier derived from a stable hash of the session's seed (adapter
// name + launch config, supplied by the caller), so the same launch
// configuration started twice in a row produces the same id absent a
// collision with an already-live session.
const (
	consonants = "bcdfghjklmnpqrstvwxyz"
	vowels     = "aeiou"
)

var (
	liveIDsMu sync.Mutex
	liveIDs   = make(map[string]bool)
)

// NewSessionID derives a CVCVC word from seed, probing successive
// hashes on collision with a still-live id, and falling back to a
// uuid-derived id after 64 probes that all hit live ids (21*5*21*5*21
// = ~232k combinations, so the fallback is rare, but it keeps the
// function total).
func NewSessionID(seed string) string {
	liveIDsMu.Lock()
	defer liveIDsMu.Unlock()

	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	n := h.Sum64()

	for attempt := 0; attempt < 64; attempt++ {
		word := cvcvc(n)
		if !liveIDs[word] {
			liveIDs[word] = true
			return word
		}
		// Re-hash the previous digest with the attempt counter mixed
		// in to deterministically probe the next candidate.
		h2 := fnv.New64a()
		_, _ = h2.Write([]byte{byte(attempt)})
		_, _ = h2.Write(h.Sum(nil))
		n = h2.Sum64()
	}

	id := "u-" + uuid.NewString()
	liveIDs[id] = true
	return id
}

// ReleaseSessionID frees id for reuse by future NewSessionID calls,
// called when a Session carrying id is reaped from the graph.
func ReleaseSessionID(id string) {
	liveIDsMu.Lock()
	delete(liveIDs, id)
	liveIDsMu.Unlock()
}

func cvcvc(n uint64) string {
	pick := func(alphabet string) byte {
		b := alphabet[n%uint64(len(alphabet))]
		n /= uint64(len(alphabet))
		return b
	}
	return string([]byte{
		pick(consonants),
		pick(vowels),
		pick(consonants),
		pick(vowels),
		pick(consonants),
	})
}
