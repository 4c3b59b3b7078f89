// Package httputil holds the JSON request and response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-quiz/internal/errors"
)

// MaxBodyBytes bounds request bodies. Curriculum images arrive base64-encoded, hence the size.
const MaxBodyBytes = 12 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// WriteError maps err onto a status code and a client-safe body. Internal causes are logged,
// never returned.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	WriteJSON(w, e.HTTPStatusCode(), errorBody{Error: errorDetail{Code: e.Code.String(), Message: e.Message}})
}

// DecodeJSON reads a JSON body into v, rejecting unknown shapes as invalid arguments.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.InvalidArgument("request body is empty")
		}
		return errors.InvalidArgument("invalid JSON body: %v", err)
	}
	return nil
}
