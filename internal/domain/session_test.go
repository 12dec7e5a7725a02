package domain

import (
	"errors"
	"testing"
)

func TestValidateSessionID(t *testing.T) {
	cases := []struct {
		name   string
		id     string
		reason RejectReason
	}{
		{"missing", "", ReasonMissing},
		{"null literal", "null", ReasonNullString},
		{"undefined literal", "undefined", ReasonUndefinedString},
		{"whitespace only", "   ", ReasonEmptyString},
		{"tabs and spaces", " \t ", ReasonEmptyString},
		{"too short", "abc123", ReasonTooShort},
		{"exactly ten chars", "abcdefghij", ReasonTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSessionID(tc.id)
			if err == nil {
				t.Fatalf("expected rejection for %q", tc.id)
			}
			var invalid *InvalidSessionIDError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidSessionIDError, got %T", err)
			}
			if invalid.Reason != tc.reason {
				t.Fatalf("id %q: reason = %s, want %s", tc.id, invalid.Reason, tc.reason)
			}
			if invalid.ID != tc.id {
				t.Fatalf("error must echo the received value, got %q", invalid.ID)
			}
		})
	}
}

func TestValidateSessionIDAccepts(t *testing.T) {
	for _, id := range []string{"abc1234567890", "desktop-session-42", "very-long-session-identifier"} {
		if err := ValidateSessionID(id); err != nil {
			t.Fatalf("id %q should be accepted: %v", id, err)
		}
	}
}

func TestValidateSessionIDIdempotent(t *testing.T) {
	// pure function: same input, same verdict
	for _, id := range []string{"", "null", "abc1234567890"} {
		first := ValidateSessionID(id)
		second := ValidateSessionID(id)
		if (first == nil) != (second == nil) {
			t.Fatalf("verdict changed between calls for %q", id)
		}
	}
}
