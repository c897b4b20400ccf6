package errors

import (
	"github.com/cockroachdb/errors"
)

// detailsError carries reportable details through the wrap chain
type detailsError struct {
	cause   error
	details map[string]interface{}
}

func (e *detailsError) Error() string { return e.cause.Error() }
func (e *detailsError) Cause() error  { return e.cause }
func (e *detailsError) Unwrap() error { return e.cause }

func withDetails(err error, details map[string]interface{}) error {
	if err == nil || len(details) == 0 {
		return err
	}
	return &detailsError{cause: err, details: details}
}

// GetReportableDetails merges every detail map found in the error chain.
// Outer details win over inner ones.
func GetReportableDetails(err error) map[string]interface{} {
	out := make(map[string]interface{})
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if d, ok := e.(*detailsError); ok {
			for k, v := range d.details {
				if _, exists := out[k]; !exists {
					out[k] = v
				}
			}
		}
	}
	return out
}
