// Package embed defines the persistent embedding record with its staleness
// rules, and the client for the external embedding-generation service.
package embed

import "time"

// Record is one document's cached embedding, together with everything
// needed to decide whether it is still usable.
type Record struct {
	DocID        string
	Vector       []float32
	ModelID      string
	ModelVersion string
	Fingerprint  string
	GeneratedAt  time.Time
}

// State classifies a cached record against the current document and model.
// Staleness is always derived, never stored, so the flag cannot drift from
// the fields it summarizes.
type State int

const (
	StateMissing State = iota
	StateStale
	StateValid
)

func (s State) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateStale:
		return "stale"
	case StateValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Valid reports whether the record was generated by the currently
// configured model over the document's current content. All three fields
// must match exactly.
func (r *Record) Valid(modelID, modelVersion, fingerprint string) bool {
	if r == nil {
		return false
	}
	return r.ModelID == modelID &&
		r.ModelVersion == modelVersion &&
		r.Fingerprint == fingerprint
}

// Classify returns the three-state lookup result for a record: Missing
// when there is no record at all, Stale when one exists but no longer
// matches, Valid otherwise.
func Classify(r *Record, modelID, modelVersion, fingerprint string) State {
	switch {
	case r == nil:
		return StateMissing
	case !r.Valid(modelID, modelVersion, fingerprint):
		return StateStale
	default:
		return StateValid
	}
}

// Text is the canonical text representation handed to the provider:
// title prepended to body so short notes still carry their heading.
// Sync-time and query-time fallback generation must agree on this, or
// the same content would embed differently depending on the code path.
func Text(title, body string) string {
	if title == "" {
		return body
	}
	return title + "\n\n" + body
}
