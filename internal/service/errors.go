package service

import "errors"

// ValidationError rejects an upload before any job exists. Handlers report
// it synchronously; it never reaches the asynchronous pipeline.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a pre-job validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
