package repoerr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrappedNotFound := fmt.Errorf("client not found: %w", ErrNotFound)
	cause := errors.New("dial tcp: connection refused")

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"not found", wrappedNotFound, KindNotFound},
		{"forbidden", fmt.Errorf("x: %w", ErrForbidden), KindForbidden},
		{"transient", Transient("clients.list", cause), KindTransient},
		{"deadline", fmt.Errorf("q: %w", context.DeadlineExceeded), KindTransient},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: KindOf()=%q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestTransientKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := Transient("incidents.create", cause)
	if !errors.Is(err, cause) || !errors.Is(err, ErrTransient) {
		t.Fatalf("Transient() does not wrap both cause and ErrTransient: %v", err)
	}
	if !Retryable(err) {
		t.Fatalf("Retryable()=false, want true")
	}
	if Retryable(ErrNotFound) {
		t.Fatalf("not-found must not be retryable")
	}
}
