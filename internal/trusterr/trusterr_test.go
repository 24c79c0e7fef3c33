package trusterr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Retr0981/agenttrust/internal/trusterr"
)

func TestIs_matchesWrappedKind(t *testing.T) {
	err := trusterr.NotFoundf("agent not found")
	if !trusterr.Is(err, trusterr.NotFound) {
		t.Fatalf("expected Is(err, NotFound) to be true")
	}
	if trusterr.Is(err, trusterr.Conflict) {
		t.Fatalf("expected Is(err, Conflict) to be false")
	}
}

func TestIs_falseForPlainError(t *testing.T) {
	if trusterr.Is(errors.New("boom"), trusterr.Internal) {
		t.Fatalf("expected Is to be false for a non-taxonomy error")
	}
}

func TestAsHTTP_mapsEachKindToItsStatus(t *testing.T) {
	cases := []struct {
		kind   trusterr.Kind
		status int
	}{
		{trusterr.BadRequest, http.StatusBadRequest},
		{trusterr.Unauthenticated, http.StatusUnauthorized},
		{trusterr.CertExpired, http.StatusUnauthorized},
		{trusterr.CertInvalid, http.StatusUnauthorized},
		{trusterr.Forbidden, http.StatusForbidden},
		{trusterr.NotFound, http.StatusNotFound},
		{trusterr.Conflict, http.StatusConflict},
		{trusterr.Upstream, http.StatusInternalServerError},
		{trusterr.Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, kind, _ := trusterr.AsHTTP(trusterr.New(tc.kind, "x"))
		if status != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.kind, tc.status, status)
		}
		if kind != tc.kind {
			t.Errorf("expected kind %s, got %s", tc.kind, kind)
		}
	}
}

func TestAsHTTP_unrecognizedErrorBecomesInternal(t *testing.T) {
	status, kind, message := trusterr.AsHTTP(errors.New("some internal detail"))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if kind != trusterr.Internal {
		t.Fatalf("expected Internal kind, got %s", kind)
	}
	if message != "internal error" {
		t.Fatalf("expected generic message so internals don't leak, got %q", message)
	}
}

func TestInternalf_wrapsUnderlyingError(t *testing.T) {
	cause := errors.New("connection refused")
	err := trusterr.Internalf(cause, "load agent")
	if !errors.Is(err, cause) {
		t.Fatalf("expected Internalf error to wrap cause")
	}
}
