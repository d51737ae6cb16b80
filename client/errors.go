package client

import (
	"errors"
	"fmt"
)

// ErrCredentialsInBrowser is returned by New when a browser-mode config
// carries an explicit credential source. Browser-mode clients must rely on
// the cookie jar; the manual header path is a server-only capability.
var ErrCredentialsInBrowser = errors.New("browser-mode clients cannot set credentials manually")

// StatusError is returned for responses with a 4xx or 5xx status code.
type StatusError struct {
	StatusCode int
	Key        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.Key, e.StatusCode)
}
