package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/veilswap/veilswap-node/log"
)

// Error is used by the API handlers to wrap an error with a stable numeric
// code and the HTTP status it should be served with.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

// Error satisfies the error interface. Returns the human-readable text.
func (e Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e Error) Unwrap() error {
	return e.Err
}

// WithErr returns a copy of Error with the passed error appended to the
// message.
func (e Error) WithErr(err error) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, err),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// Withf returns a copy of Error with the formatted text appended to the
// message.
func (e Error) Withf(format string, args ...any) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, fmt.Sprintf(format, args...)),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// Write serializes the error as a JSON body with its HTTP status.
func (e Error) Write(w http.ResponseWriter) {
	msg := struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}{
		Error: e.Err.Error(),
		Code:  e.Code,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Warnw("failed to marshal error response", "error", err)
		http.Error(w, e.Err.Error(), e.HTTPstatus)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPstatus)
	if _, err := w.Write(data); err != nil {
		log.Warnw("failed to write error response", "error", err)
	}
}
