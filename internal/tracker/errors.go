package tracker

import (
	"errors"
	"fmt"
)

// Sentinel errors for tracker operations.
var (
	ErrNotFound     = errors.New("tracker: not found")
	ErrUnauthorized = errors.New("tracker: unauthorized")
	ErrRateLimited  = errors.New("tracker: rate limited by server")
	ErrBadRequest   = errors.New("tracker: bad request")
	ErrServer       = errors.New("tracker: server error")
	ErrMalformed    = errors.New("tracker: malformed response")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // "fetch", "increment", "search"
	ID  int    // library entry id, if applicable
	Err error
}

func (e *Error) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("tracker %s [%d]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("tracker %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, id int, err error) error {
	return &Error{Op: op, ID: id, Err: err}
}
