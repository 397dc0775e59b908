package cluster

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response from the cluster API. The raw body is
// kept for operator diagnosis.
type StatusError struct {
	Code   int
	Method string
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cluster API %s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// IsConflict reports whether the error is a create-when-exists conflict.
// The apply path handles these by switching to an update.
func IsConflict(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && (se.Code == http.StatusConflict)
}

// IsNotFound reports whether the error is a missing-object response.
// Deletes treat these as already satisfied.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
