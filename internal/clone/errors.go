package clone

import "fmt"

// ErrIntegrity reports a strong-hash mismatch. Fatal: the clone aborts
// and the chunk is never retried.
type ErrIntegrity struct {
	DescIndex uint32
	Reason    string
}

func (e *ErrIntegrity) Error() string {
	return fmt.Sprintf("clone: integrity check failed for descriptor %d: %s", e.DescIndex, e.Reason)
}

// ErrCancelled reports that the clone returned early because its context
// was cancelled. Partially written output is left as-is.
type ErrCancelled struct {
	Cause error
}

func (e *ErrCancelled) Error() string {
	return fmt.Sprintf("clone: cancelled: %v", e.Cause)
}

func (e *ErrCancelled) Unwrap() error { return e.Cause }
