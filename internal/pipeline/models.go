package pipeline

import "time"

// State tracks where a run is in its lifecycle. Transitions only move
// forward; Errored is reachable from every working state.
type State string

const (
	StateIdle          State = "IDLE"
	StateDeduplicating State = "DEDUPLICATING"
	StateEmbedding     State = "EMBEDDING"
	StateUploading     State = "UPLOADING"
	StateDone          State = "DONE"
	StateErrored       State = "ERRORED"
)

var validTransitions = map[State][]State{
	StateIdle:          {StateDeduplicating},
	StateDeduplicating: {StateEmbedding, StateDone, StateErrored},
	StateEmbedding:     {StateUploading, StateErrored},
	StateUploading:     {StateDone, StateErrored},
	StateDone:          {},
	StateErrored:       {},
}

// CanTransition reports whether moving from s to next is a legal step.
func (s State) CanTransition(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RunReport summarises one pipeline run. FailedKeys lists the primary keys
// that were never uploaded so callers can replay them.
type RunReport struct {
	RunId           string    `json:"run_id"`
	Integration     string    `json:"integration"`
	State           State     `json:"state"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	TotalRecords    int       `json:"total_records"`
	SkippedExisting int       `json:"skipped_existing"`
	Processed       int       `json:"processed"`
	UploadedKeys    []string  `json:"uploaded_keys"`
	FailedKeys      []string  `json:"failed_keys"`
	Error           string    `json:"error,omitempty"`
}

// FailureEvent is produced to the failure topic when a run errors, carrying
// enough context to replay the affected keys.
type FailureEvent struct {
	RunId       string    `json:"run_id"`
	Integration string    `json:"integration"`
	Stage       string    `json:"stage"`
	Keys        []string  `json:"keys"`
	Error       string    `json:"error"`
	Timestamp   time.Time `json:"timestamp"`
}
