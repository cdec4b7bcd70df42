package kanban_test

import (
	"testing"

	"jobtracker/tracker-service/internal/kanban"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"Applied", "Interviewing", "Offer", "Rejected", "Cancelled"}
	for _, s := range valid {
		got, err := kanban.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	for _, s := range []string{"", "UNKNOWN", "Hired", "TO_APPLY"} {
		if _, err := kanban.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", s)
		}
	}
}

// ParseStatus must be case-sensitive: the values mirror the Postgres enum.
func TestParseStatus_CaseSensitive(t *testing.T) {
	for _, s := range []string{"applied", "INTERVIEWING", "offer", "REJECTED", "cancelled"} {
		if _, err := kanban.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) should reject wrong-case value, got nil error", s)
		}
	}
}

func TestParseStatus_WithWhitespace(t *testing.T) {
	for _, s := range []string{" Applied", "Applied ", " Applied "} {
		if _, err := kanban.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) should reject padded value, got nil error", s)
		}
	}
}

// Every column must round-trip through ParseStatus and report Valid.
func TestStatuses_AllRoundTrip(t *testing.T) {
	all := kanban.Statuses()
	if len(all) != 5 {
		t.Fatalf("Statuses() has %d entries, want 5", len(all))
	}
	for _, s := range all {
		got, err := kanban.ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if kanban.Status("Hired").Valid() {
		t.Error(`Status("Hired").Valid() = true`)
	}
}
