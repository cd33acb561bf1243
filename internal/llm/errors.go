package llm

import (
	"errors"
	"fmt"
)

// GenerationError reports a failure of the generation capability: provider
// errors, timeouts, malformed or empty responses. Stages never retry it;
// it propagates to the orchestrator which aborts the run.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGenerationError reports whether err is (or wraps) a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

func generationErr(provider, format string, args ...interface{}) error {
	return &GenerationError{Provider: provider, Err: fmt.Errorf(format, args...)}
}
