package videosource

import "fmt"

// OpenError means the backend could not acquire a source. The read side has
// no error type: a capture handle reporting not-ok on Read is the expected
// end of a stream and surfaces as the worker going Dead, not as an error.
type OpenError struct {
	ID  SourceID
	Err error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.ID, e.Err)
}

// Unwrap returns the cause
func (e *OpenError) Unwrap() error {
	return e.Err
}

// FatalError means not a single source in the registry could be started.
// Individual open failures never escalate past a log line; this is the one
// condition that does.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no sources started: %v", e.Err)
	}
	return "no sources started"
}

// Unwrap returns the collected start failures
func (e *FatalError) Unwrap() error {
	return e.Err
}
