package session

import (
	"context"
	"encoding/json"

	"github.com/dshills/dapgraph/internal/dapgraph/model"
	"github.com/dshills/dapgraph/internal/dapgraph/task"
)

// startDebuggingArgs mirrors the `startDebugging` reverse request
// js-debug (and other adapters that multiplex several debug targets
// over one adapter process) send to ask the client to open a second
// session against the same adapter with adapter-supplied configuration
// layered on top of the parent's launch request.
type startDebuggingArgs struct {
	Configuration map[string]any `json:"configuration"`
	Request       string         `json:"request"`
}

// registerStartDebugging installs the default handler for a
// `startDebugging` reverse request on sess's client: it spawns a child
// session against parentLaunch.Adapter's registered configuration,
// merging the adapter-supplied configuration over parentLaunch.Args.
// Adapters that instead want one transport per child (a distinct
// process or socket per debug target) are not modeled; every
// `startDebugging` child in this engine reuses its parent's
// registered adapter config verbatim, which covers js-debug's actual
// usage (one Node process, many logical sessions multiplexed over it)
// but would need a richer AdapterConfig to cover an adapter that wants
// an entirely different command per child.
func (e *Engine) registerStartDebugging(sess *model.Session, parentLaunch LaunchConfig) {
	sess.Client.OnReverseRequest("startDebugging", func(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
		var args startDebuggingArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}

		childLaunch := LaunchConfig{
			Adapter: parentLaunch.Adapter,
			Request: args.Request,
			Args:    mergeArgs(parentLaunch.Args, args.Configuration),
		}
		if childLaunch.Request == "" {
			childLaunch.Request = parentLaunch.Request
		}

		task.Spawn(context.WithoutCancel(ctx), func(ctx context.Context) (any, error) {
			_, err := e.start(ctx, sess, childLaunch)
			return nil, err
		})

		return json.RawMessage(`{}`), nil
	})
}

func mergeArgs(base map[string]any, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
