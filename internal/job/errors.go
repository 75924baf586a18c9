// Package job owns the ingestion job lifecycle: submission, the worker
// that runs a job end to end, and the store that tracks progress.
package job

import "fmt"

// Stage identifies which pipeline stage a job-fatal error came from.
type Stage string

const (
	StageSourceRetrieval  Stage = "source_retrieval"
	StageSchemaValidation Stage = "schema_validation"
	StageChunkRead        Stage = "chunk_read"
	StageOutputGeneration Stage = "output_generation"
)

// StageError is a job-fatal pipeline failure. The wrapped error's message
// is recorded on the job verbatim; the stage tags where it happened.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// fatal wraps err as a job-fatal error for the given stage. nil passes
// through.
func fatal(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
