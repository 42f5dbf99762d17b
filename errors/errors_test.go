package errors

import (
	"fmt"
	"testing"
)

func TestWatchError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeNotARepository, "not a repository")
	if err.Code != ErrCodeNotARepository {
		t.Errorf("expected code %s, got %s", ErrCodeNotARepository, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeNotARepository) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("path", "/tmp/repo").WithDetail("attempts", 2)
	if detailed.Details["path"] != "/tmp/repo" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := PatternInvalid("[bad", fmt.Errorf("syntax error"))
	if err.Code != ErrCodePatternInvalid {
		t.Errorf("expected code %s, got %s", ErrCodePatternInvalid, err.Code)
	}
	if err.Details["pattern"] != "[bad" {
		t.Error("PatternInvalid should include pattern detail")
	}

	err = RootLost("/mnt/gone")
	if err.Code != ErrCodeWatchRootLost {
		t.Errorf("expected code %s, got %s", ErrCodeWatchRootLost, err.Code)
	}
	if err.Details["path"] != "/mnt/gone" {
		t.Error("RootLost should include path detail")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(RootLost("/mnt/gone")) {
		t.Error("RootLost should be fatal")
	}
	if !IsFatal(ChannelClosed()) {
		t.Error("ChannelClosed should be fatal")
	}
	if IsFatal(WatchIO("/tmp/f", fmt.Errorf("eperm"))) {
		t.Error("WatchIO should not be fatal")
	}
	if IsFatal(nil) {
		t.Error("nil should not be fatal")
	}
}
