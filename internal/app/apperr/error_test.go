package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	t.Parallel()

	var nilErr *Error
	if nilErr.Error() != "" {
		t.Fatalf("nil Error()=%q, want empty", nilErr.Error())
	}
	if got := (&Error{Code: "X"}).Error(); got != "X" {
		t.Fatalf("Error()=%q, want code fallback", got)
	}
}

func TestValidation_IsAsThroughWrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create: %w", Validation("name", "invalid name", "must be non-empty"))
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 || ae.Details["name"] != "must be non-empty" {
		t.Fatalf("err=%v, want 422 VALIDATION_ERROR on name", err)
	}
}
