package cryptoanalyst

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	plain := NewError(ErrCodeNotFound, "chat session 7 not found")
	if got := plain.Error(); got != "NOT_FOUND: chat session 7 not found" {
		t.Errorf("plain error: got %q", got)
	}

	wrapped := WrapError(ErrCodeDatabase, "query chat sessions", errors.New("disk I/O error"))
	if got := wrapped.Error(); got != "DATABASE_ERROR: query chat sessions: disk I/O error" {
		t.Errorf("wrapped error: got %q", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := WrapError(ErrCodeInternal, "context", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestIsErrorCode(t *testing.T) {
	err := NewError(ErrCodeInvalidInput, "bad input")
	if !IsErrorCode(err, ErrCodeInvalidInput) {
		t.Error("expected code match")
	}
	if IsErrorCode(err, ErrCodeNotFound) {
		t.Error("expected code mismatch")
	}
	if IsErrorCode(errors.New("plain"), ErrCodeInternal) {
		t.Error("plain errors carry no code")
	}
	if IsErrorCode(nil, ErrCodeInternal) {
		t.Error("nil carries no code")
	}

	// Codes survive an fmt wrap.
	deep := fmt.Errorf("handler: %w", NewError(ErrCodeNotFound, "missing"))
	if !IsErrorCode(deep, ErrCodeNotFound) {
		t.Error("expected code through wrapping")
	}
}
