package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/errors"
)

func TestError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.CodeInvalidArgument, http.StatusBadRequest},
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodeAlreadyExists, http.StatusConflict},
		{errors.CodePermissionDenied, http.StatusForbidden},
		{errors.CodeUnauthenticated, http.StatusUnauthorized},
		{errors.CodeFailedPrecondition, http.StatusUnprocessableEntity},
		{errors.CodeUnavailable, http.StatusServiceUnavailable},
		{errors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := errors.New(tt.code).HTTPStatusCode(); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConvert_WrapsUnknownAsInternal(t *testing.T) {
	cause := stderrors.New("boom")
	e := errors.Convert(cause)

	if e.Code != errors.CodeInternal {
		t.Errorf("Code = %v, want internal", e.Code)
	}
	if !stderrors.Is(e, cause) {
		t.Error("converted error should unwrap to its cause")
	}
}

func TestConvert_FindsWrappedError(t *testing.T) {
	err := fmt.Errorf("load quiz: %w", errors.NotFound("quiz %s not found", "q1"))

	e := errors.Convert(err)
	if e.Code != errors.CodeNotFound {
		t.Errorf("Code = %v, want not_found", e.Code)
	}
	if e.Message != "quiz q1 not found" {
		t.Errorf("Message = %q", e.Message)
	}
	if !errors.Is(err, errors.CodeNotFound) {
		t.Error("Is(err, CodeNotFound) should be true")
	}
	if errors.Is(err, errors.CodeAlreadyExists) {
		t.Error("Is(err, CodeAlreadyExists) should be false")
	}
}
