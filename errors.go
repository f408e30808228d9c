package speccache

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for empty keys and nil compute functions.
var ErrInvalidArgument = errors.New("speccache: invalid argument")

// ComputeError wraps an error returned by a compute function. Every caller
// that shared the flight receives the same *ComputeError.
type ComputeError struct {
	Key string
	Err error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("speccache: compute %q: %v", e.Key, e.Err)
}

func (e *ComputeError) Unwrap() error { return e.Err }

// PanicError reports a panic recovered from a compute function.
type PanicError struct {
	Key   string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("speccache: compute %q panicked: %v", e.Key, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

type RemoveError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *RemoveError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("remove %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("remove %q: gen bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("remove %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("remove %q: unknown error", e.Key)
	}
}

func (e *RemoveError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
