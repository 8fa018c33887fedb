// Package job tracks the lifecycle of a detached generation job: a closed
// status enum, stage labels, monotonic progress, and snapshot persistence
// through a pluggable store.
package job

import "time"

// Status is the closed set of job states. Transitions are validated at the
// point of mutation; terminal states never change again.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusError, StatusCancelled},
	StatusProcessing: {StatusProcessing, StatusComplete, StatusError, StatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusCancelled
}

// Stage labels within a running job.
const (
	StageUploading      = "uploading"
	StageExtraction     = "extraction"
	StageAnalyzing      = "analyzing_structure"
	StageDataGeneration = "data_generation"
	StageProcessing     = "processing"
	StageSaving         = "saving"
)

// Progress milestones. Values are advisory and must never decrease while a
// job is processing.
const (
	ProgressExtractionStart = 10
	ProgressExtractionDone  = 40
	ProgressAnalysisDone    = 60
	ProgressGenerationDone  = 90
	ProgressSavingDone      = 100
)

type Stats struct {
	ChunksProcessed int64 `json:"chunks_processed"`
	ChunksTotal     int64 `json:"chunks_total"`
	ClauseCount     int64 `json:"clause_count"`
	CreditsUsed     int64 `json:"credits_used"`
}

// Snapshot is the flat persisted view of a job that callers poll.
type Snapshot struct {
	Status    Status    `json:"status"`
	Stage     string    `json:"stage"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	Stats     Stats     `json:"stats"`
	UpdatedAt time.Time `json:"updated_at"`
}
