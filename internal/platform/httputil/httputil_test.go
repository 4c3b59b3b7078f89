package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", errors.NotFound("quiz %s not found", "q1"), http.StatusNotFound, "not_found", "quiz q1 not found"},
		{"wrapped", fmt.Errorf("load: %w", errors.PermissionDenied("not yours")), http.StatusForbidden, "permission_denied", "not yours"},
		{"internal hides cause", fmt.Errorf("dial tcp: refused"), http.StatusInternalServerError, "internal", "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest("GET", "/x", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != tt.wantMsg {
				t.Errorf("body = %+v, want {%s %s}", body.Error, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Name string }

	rec := httptest.NewRecorder()
	if err := DecodeJSON(rec, httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ali"}`)), &v); err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if v.Name != "Ali" {
		t.Errorf("Name = %q, want Ali", v.Name)
	}

	for _, body := range []string{"", "{not json"} {
		err := DecodeJSON(rec, httptest.NewRequest("POST", "/", strings.NewReader(body)), &v)
		if !errors.Is(err, errors.CodeInvalidArgument) {
			t.Errorf("DecodeJSON(%q) error = %v, want invalid argument", body, err)
		}
	}
}
