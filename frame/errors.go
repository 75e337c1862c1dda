package frame

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrGraphicsOperationFailed is matched by every error the frame loop
// returns. None of them are recoverable.
var ErrGraphicsOperationFailed = errors.New("graphics operation failed")

// Causes reported by backends.
var (
	ErrDeviceLost       = errors.New("device lost")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrNotFound         = errors.New("not found")
)

// OpError records which step of which frame failed.
type OpError struct {
	Op    string
	Frame int
	Err   error
}

func (e *OpError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("%s: %s: %v", ErrGraphicsOperationFailed, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: frame %d: %s: %v", ErrGraphicsOperationFailed, e.Frame, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is makes every OpError match ErrGraphicsOperationFailed.
func (e *OpError) Is(target error) bool {
	return target == ErrGraphicsOperationFailed
}

func opError(op string, frame int, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return &OpError{Op: op, Frame: frame, Err: err}
}

// Fail wraps err as a graphics operation failure outside of a frame, such as
// during setup.
func Fail(op string, err error) error {
	return opError(op, -1, err)
}
