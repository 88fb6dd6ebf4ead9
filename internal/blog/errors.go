package blog

import (
	"errors"
	"fmt"
	"net/http"
)

// badRequestError rejects a request the client can fix. Key is the short
// machine readable reason (e.g. "idexists") sent back in alert headers.
type badRequestError struct {
	entity string
	key    string
	msg    string
}

func (e badRequestError) Error() string  { return e.msg }
func (e badRequestError) StatusCode() int { return http.StatusBadRequest }
func (e badRequestError) Key() string     { return e.key }
func (e badRequestError) Entity() string  { return e.entity }

func errIDExists(entity string) error {
	return badRequestError{entity: entity, key: "idexists", msg: fmt.Sprintf("a new %s cannot already have an ID", entity)}
}

func errInvalid(entity, field, reason string) error {
	return badRequestError{entity: entity, key: "validation", msg: fmt.Sprintf("%s.%s %s", entity, field, reason)}
}

// IsBadRequest reports whether err was caused by client input.
func IsBadRequest(err error) bool {
	var br badRequestError
	return errors.As(err, &br)
}

// notFoundError signals a missing entity (404).
type notFoundError struct {
	entity string
	id     int64
}

func (e notFoundError) Error() string   { return fmt.Sprintf("%s not found: %d", e.entity, e.id) }
func (e notFoundError) StatusCode() int { return http.StatusNotFound }
func (e notFoundError) Key() string     { return "notfound" }
func (e notFoundError) Entity() string  { return e.entity }

// ErrNotFound returns the error used when entity id does not exist.
func ErrNotFound(entity string, id int64) error { return notFoundError{entity: entity, id: id} }

// IsNotFound reports whether err indicates a missing entity.
func IsNotFound(err error) bool {
	var nf notFoundError
	return errors.As(err, &nf)
}
