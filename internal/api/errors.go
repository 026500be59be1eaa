package api

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultErrorMessage is used when a failed response carries no body.
const DefaultErrorMessage = "An error occurred"

// RequestError is returned for any non-2xx response.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsUnauthorized reports whether err is a RequestError with status 401 or 403.
func IsUnauthorized(err error) bool {
	var re *RequestError
	if !errors.As(err, &re) {
		return false
	}
	return re.Status == http.StatusUnauthorized || re.Status == http.StatusForbidden
}

// IsNotFound reports whether err is a RequestError with status 404.
func IsNotFound(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}
