package apierr

import (
	"errors"
	"testing"
)

func TestCodeOf_TaggedAndPlainErrors(t *testing.T) {
	if got := CodeOf(ErrJobNotFound); got != CodeNotFound {
		t.Errorf("expected CodeNotFound, got %s", got)
	}
	if got := CodeOf(errors.New("untagged")); got != CodeInternal {
		t.Errorf("expected CodeInternal for untagged error, got %s", got)
	}
}

func TestWrap_PreservesUnwrapChain(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(CodeExternalService, "provider call failed", cause)

	if !errors.Is(wrapped, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if CodeOf(wrapped) != CodeExternalService {
		t.Errorf("expected CodeExternalService, got %s", CodeOf(wrapped))
	}
	if wrapped.Error() != "provider call failed: connection refused" {
		t.Errorf("unexpected error message: %q", wrapped.Error())
	}
}

func TestWrap_CodeOfWalksThroughFurtherWrapping(t *testing.T) {
	inner := Wrap(CodeNotFound, "job not found", nil)
	outer := fmtWrap(inner)

	if CodeOf(outer) != CodeNotFound {
		t.Errorf("expected CodeOf to walk through a further-wrapped error, got %s", CodeOf(outer))
	}
}

func fmtWrap(err error) error {
	return &wrapper{err}
}

type wrapper struct{ err error }

func (w *wrapper) Error() string { return w.err.Error() }
func (w *wrapper) Unwrap() error { return w.err }

func TestErrorsIs_MatchesSentinelByIdentity(t *testing.T) {
	var err error = ErrForbidden
	if !errors.Is(err, ErrForbidden) {
		t.Error("expected errors.Is to match the shared sentinel instance")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("did not expect distinct sentinels to match")
	}
}
