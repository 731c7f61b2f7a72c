// Package srcerr defines the error kinds that decide how far a failure
// propagates during source extraction.
//
// A ConfigurationError means the whole invocation is malformed (bad flags,
// missing source position file, output already present) and processing must
// stop. A DataError is scoped to a single image: the batch driver logs it and
// moves on to the next file.
//
// Both kinds carry a stack trace from github.com/pkg/errors and are found in
// a wrapped chain with errors.As.
package srcerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports invalid invocation input.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DataError reports a defect in one input image.
type DataError struct {
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error: %s: %v", e.Msg, e.Err)
	}
	return "data error: " + e.Msg
}

func (e *DataError) Unwrap() error { return e.Err }

// Configf returns a ConfigurationError with a formatted message.
func Configf(format string, a ...interface{}) error {
	return errors.WithStack(&ConfigurationError{Msg: fmt.Sprintf(format, a...)})
}

// WrapConfig wraps err as a ConfigurationError. A nil err yields nil.
func WrapConfig(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&ConfigurationError{Msg: fmt.Sprintf(format, a...), Err: err})
}

// Dataf returns a DataError with a formatted message.
func Dataf(format string, a ...interface{}) error {
	return errors.WithStack(&DataError{Msg: fmt.Sprintf(format, a...)})
}

// WrapData wraps err as a DataError. A nil err yields nil.
func WrapData(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&DataError{Msg: fmt.Sprintf(format, a...), Err: err})
}

// IsConfiguration reports whether err has a ConfigurationError in its chain.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsData reports whether err has a DataError in its chain.
func IsData(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}
