package repository

import (
	"errors"
	"fmt"
)

// ErrDataFormat matches every DataFormatError via errors.Is.
var ErrDataFormat = errors.New("unrecognized rate payload")

// DataFormatError reports a payload whose top-level shape is neither a
// dated price array nor a year-keyed object.
type DataFormatError struct {
	Code   string
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDataFormat}
	}
	return []error{ErrDataFormat, e.Err}
}

func formatError(code, reason string, err error) error {
	return &DataFormatError{Code: code, Reason: reason, Err: err}
}
