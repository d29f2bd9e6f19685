package injector

import (
	"syscall"

	"github.com/pkg/errors"
)

var (
	ErrProcessGone     = errors.New("process no longer exists")
	ErrOpenProcess     = errors.New("open process failed")
	ErrQueryProcess    = errors.New("query process failed")
	ErrBitnessMismatch = errors.New("injector and target bitness differ")
	ErrImageMismatch   = errors.New("dll architecture does not match injector")
	ErrResolve         = errors.New("resolve loader entry point failed")
	ErrAllocate        = errors.New("remote alloc memory failed")
	ErrWrite           = errors.New("remote write memory failed")
	ErrCreateThread    = errors.New("create remote thread failed")
	ErrWait            = errors.New("wait remote thread failed")
	ErrWaitTimeout     = errors.New("remote thread timed out")
	ErrNotLoaded       = errors.New("module not present after injection")
)

// stageError ties a failure to the step of the injection it happened in.
// errors.Is matches the step, errors.As reaches the OS error.
type stageError struct {
	stage error
	err   error
}

func fail(stage, err error) error {
	return &stageError{stage: stage, err: err}
}

func (e *stageError) Error() string {
	if e.err == nil {
		return e.stage.Error()
	}
	return e.stage.Error() + ": " + e.err.Error()
}

func (e *stageError) Is(target error) bool {
	return target == e.stage
}

func (e *stageError) Unwrap() error {
	return e.err
}

// Stage returns the step err failed in, or nil if err did not come from an Injector.
func Stage(err error) error {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return nil
}

// ErrorCode returns the OS error code wrapped in err, if any.
func ErrorCode(err error) (uint32, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return uint32(errno), true
	}
	return 0, false
}
