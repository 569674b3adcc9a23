package models

import (
	"encoding/json"
	"time"
)

// MaxActionLog bounds the workbook action log. Older entries are truncated,
// silently forfeiting undo depth beyond this many actions.
const MaxActionLog = 100

// Action is an immutable record of one applied mutation. The payload is the
// JSON encoding of the operation that was applied, so history survives a
// serialization round trip and can be replayed.
type Action struct {
	// ID is a stable identifier for the record.
	ID string `json:"id"`
	// Kind is the operation kind tag ("edit-cell", "insert-row", ...).
	Kind string `json:"kind"`
	// SheetID is the target sheet, empty for workbook-level operations.
	SheetID string `json:"sheet_id,omitempty"`
	// Payload is the JSON-encoded operation.
	Payload json.RawMessage `json:"payload"`
	// Timestamp is when the operation was applied.
	Timestamp time.Time `json:"timestamp"`
	// User optionally attributes the change.
	User string `json:"user,omitempty"`
	// Inverse undoes this action exactly. It may be of a different kind than
	// the forward action. Inverses of inverses are not recorded.
	Inverse *Action `json:"inverse,omitempty"`
}

// AppendAction appends to the bounded action log, truncating the oldest
// entries once MaxActionLog is exceeded.
func (w *Workbook) AppendAction(a Action) {
	w.ActionLog = append(w.ActionLog, a)
	if n := len(w.ActionLog) - MaxActionLog; n > 0 {
		w.ActionLog = append([]Action(nil), w.ActionLog[n:]...)
	}
}

// LastAction returns the newest logged action, or nil when the log is empty.
func (w *Workbook) LastAction() *Action {
	if len(w.ActionLog) == 0 {
		return nil
	}
	return &w.ActionLog[len(w.ActionLog)-1]
}
