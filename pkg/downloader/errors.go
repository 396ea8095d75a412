package downloader

import (
	"fmt"
	"net/http"
)

// FetchError reports a transport failure or a non-success response.
// StatusCode is zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch JSON data: %s", e.Status)
	}
	return fmt.Sprintf("failed to fetch JSON data from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether another attempt could succeed: transport
// errors, throttling and server-side failures.
func (e *FetchError) Temporary() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// ParseError reports a body that is not well-formed JSON.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON data from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
