package tmdb

import (
	"errors"
	"fmt"
)

// Sentinel errors for metadata source calls.
var (
	ErrNotFound    = errors.New("tmdb: not found")
	ErrRateLimited = errors.New("tmdb: rate limited by server")
	ErrBadRequest  = errors.New("tmdb: bad request")
	ErrServer      = errors.New("tmdb: server error")
	ErrInvalidKind = errors.New("tmdb: invalid media kind")
)

// StatusError is a non-2xx response that matched no sentinel.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// Error adds operation context to a failed call.
type Error struct {
	Op       string // search, popular, trending, details, genres
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tmdb %s [%s]: %v", e.Op, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, endpoint string, err error) error {
	return &Error{Op: op, Endpoint: endpoint, Err: err}
}
