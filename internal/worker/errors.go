package worker

// ProcessError tells the worker whether a failed message is worth another attempt.
type ProcessError struct {
	Err       error
	Retryable bool
}

func (e *ProcessError) Error() string {
	return e.Err.Error()
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func NewRetryableError(err error) *ProcessError {
	return &ProcessError{Err: err, Retryable: true}
}

func NewFatalError(err error) *ProcessError {
	return &ProcessError{Err: err, Retryable: false}
}
