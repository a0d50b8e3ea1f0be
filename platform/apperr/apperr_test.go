package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("outer: %w", Wrap(KindUnavailable, "deal is busy", base).WithOp("deals.Recompute"))

	if !Is(err, KindUnavailable) {
		t.Fatalf("expected unavailable, got %s", GetKind(err))
	}
	if !errors.Is(err, base) {
		t.Fatal("underlying error must stay in the chain")
	}

	var appErr *Error
	if !errors.As(err, &appErr) || appErr.HTTPStatus() != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 mapping, got %v", appErr)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		NotFound("x"):             http.StatusNotFound,
		Validation("x"):           http.StatusBadRequest,
		Conflict("x"):             http.StatusConflict,
		New(KindUnknown, "x"):     http.StatusInternalServerError,
		New(KindUnauthorized, ""): http.StatusUnauthorized,
	}
	for err, want := range cases {
		if got := err.HTTPStatus(); got != want {
			t.Errorf("%s: got %d, want %d", err.Kind, got, want)
		}
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("plain errors have no kind")
	}
}
