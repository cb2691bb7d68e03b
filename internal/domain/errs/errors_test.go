package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorCarriesCodeAndTimestamp(t *testing.T) {
	err := UserNotFoundByID(42)
	if err.Code != CodeUserNotFound {
		t.Fatalf("code=%s", err.Code)
	}
	if err.Kind != KindNotFound {
		t.Fatalf("kind=%d", err.Kind)
	}
	if err.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
	if !strings.Contains(err.Error(), "42") {
		t.Fatalf("message missing id: %q", err.Error())
	}
}

func TestDuplicateVariants(t *testing.T) {
	byEmail := DuplicateEmail("john@example.com")
	byUsername := DuplicateUsername("john_doe")
	if byEmail.Code != CodeDuplicateUser || byUsername.Code != CodeDuplicateUser {
		t.Fatalf("codes: %s %s", byEmail.Code, byUsername.Code)
	}
	if byEmail.Message == byUsername.Message {
		t.Fatal("variants should carry distinct messages")
	}
}

func TestErrorsAsRoundTrip(t *testing.T) {
	var err error = DuplicateUsername("john_doe")
	var de *Error
	if !errors.As(err, &de) {
		t.Fatal("errors.As failed")
	}
	if de.Kind != KindDuplicate {
		t.Fatalf("kind=%d", de.Kind)
	}
}
