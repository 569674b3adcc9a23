package gridbook

import "github.com/okabe-dev/gridbook/pkg/gridbook/recompute"

// ApplyOptions configures one ApplyOperations call.
type ApplyOptions struct {
	// User optionally attributes the resulting actions.
	User string
	// SkipValidation bypasses the pre-mutation validation tier. Callers that
	// replay already-validated history set this.
	SkipValidation bool
	// SkipRecompute defers recomputation entirely, letting callers batch
	// several applies before a single recompute pass.
	SkipRecompute bool
	// Recompute is the caller-owned coordinator to reuse across calls. Nil
	// with SkipRecompute false means no recompute runs this call.
	Recompute *recompute.Coordinator
	// SyncComputed controls whether computed values are read back into the
	// cell cache immediately. If nil, defaults to true whenever a recompute
	// pass runs; false pushes changes to the engine without reading back.
	SyncComputed *bool

	// skipHistory suppresses action-log recording; the undo path sets it so
	// replayed inverses are not logged as fresh history.
	skipHistory bool
	// preserveRedo keeps the redo stack intact across a forward apply; only
	// the redo path sets it.
	preserveRedo bool
}

// DefaultApplyOptions returns the options used when callers pass the zero
// value deliberately: validate, record history and recompute when a
// coordinator is supplied.
func DefaultApplyOptions() ApplyOptions {
	return ApplyOptions{}
}

// ShouldRecompute reports whether a recompute pass runs after a successful
// batch.
func (o ApplyOptions) ShouldRecompute() bool {
	return !o.SkipRecompute && o.Recompute != nil
}

// ShouldSyncComputed reports whether computed values are read back
// immediately after the push.
func (o ApplyOptions) ShouldSyncComputed() bool {
	if o.SyncComputed != nil {
		return *o.SyncComputed
	}
	return true
}
