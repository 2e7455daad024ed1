package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrappedErrors(t *testing.T) {
	base := NotFound("video not found")
	wrapped := fmt.Errorf("load video: %w", base)

	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("expected not found kind, got %v", KindOf(wrapped))
	}
	if Message(wrapped) != "video not found" {
		t.Fatalf("unexpected message %q", Message(wrapped))
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatal("expected unclassified errors to be internal")
	}
	if Message(errors.New("pq: relation does not exist")) != "internal server error" {
		t.Fatal("expected raw causes to stay hidden")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("signature is invalid")
	err := Unauthorized("invalid or expired token").Wrap(cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through errors.Is")
	}
	if Message(err) != "invalid or expired token" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindBadRequest:   http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.Status(); got != want {
			t.Fatalf("%s: expected %d got %d", kind, want, got)
		}
	}
}
