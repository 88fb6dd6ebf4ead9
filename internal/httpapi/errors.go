package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"blogd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// keyedError is implemented by service errors that carry an alert key and
// the entity they concern.
type keyedError interface {
	Key() string
	Entity() string
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSONErrorKey(w, status, msg, "")
}

func writeJSONErrorKey(w http.ResponseWriter, status int, msg, key string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Key: key})
}

// writeServiceError maps a service error to a status code, failure alert
// headers and a JSON body.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return
	}
	status := http.StatusInternalServerError
	var he HTTPError
	if errors.As(err, &he) {
		status = he.StatusCode()
	}
	key := ""
	var ke keyedError
	if errors.As(err, &ke) {
		key = ke.Key()
		if status < 500 {
			setFailureAlert(w, ke.Entity(), key)
		}
	}
	msg := err.Error()
	if status >= 500 {
		logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", reqID(r)).Msg("request failed")
		msg = "internal server error"
	}
	writeJSONErrorKey(w, status, msg, key)
}
