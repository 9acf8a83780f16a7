package domain

import "fmt"

// ErrorType is the wire token reported in the response envelope.
type ErrorType string

const (
	ErrorAlreadyStarted ErrorType = "ALREADY_STARTED"
	ErrorNotRunning     ErrorType = "NOT_RUNNING"
	ErrorWrongRequest   ErrorType = "WRONG_REQUEST"
	ErrorNotAllocated   ErrorType = "NOT_ALLOCATED"
	ErrorNoFrequency    ErrorType = "NO_FREQUENCY"
	ErrorInternal       ErrorType = "INTERNAL_ERROR"
)

type ErrAlreadyStarted struct{}

func (e ErrAlreadyStarted) Error() string {
	return "frequency server is already started"
}

type ErrNotRunning struct{}

func (e ErrNotRunning) Error() string {
	return "frequency server is not running"
}

type ErrWrongRequest struct {
	Input string
	Err   error
}

func (e ErrWrongRequest) Error() string {
	return fmt.Sprintf("wrong request %q: %v", e.Input, e.Err)
}

func (e ErrWrongRequest) Unwrap() error {
	return e.Err
}

type ErrNotAllocated struct {
	Frequency int
}

func (e ErrNotAllocated) Error() string {
	return fmt.Sprintf("frequency %d is not allocated", e.Frequency)
}

type ErrNoFrequency struct {
	Capacity int
}

func (e ErrNoFrequency) Error() string {
	return fmt.Sprintf("no free frequency left (capacity %d)", e.Capacity)
}
