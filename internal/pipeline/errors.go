package pipeline

import "fmt"

// Stage names used in error reporting and logs.
const (
	StageRetrieval    = "retrieval"
	StageDrafting     = "drafting"
	StageVerification = "verification"
	StageSummarizer   = "memory_summarizer"
)

// StageError reports which stage aborted the run and why.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
