package models

import (
	"strings"
	"testing"
	"time"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{SessionStatusPending, SessionStatusPaid, true},
		{SessionStatusPaid, SessionStatusMinted, true},

		// No skipping, no going backwards
		{SessionStatusPending, SessionStatusMinted, false},
		{SessionStatusPaid, SessionStatusPending, false},
		{SessionStatusMinted, SessionStatusPaid, false},
		{SessionStatusMinted, SessionStatusPending, false},

		// Terminal
		{SessionStatusMinted, SessionStatusMinted, false},

		// Unknown statuses
		{"nonexistent", SessionStatusPaid, false},
		{SessionStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{SessionStatusPending, SessionStatusPaid, SessionStatusMinted}

	for _, status := range allStatuses {
		if _, ok := ValidSessionTransitions[status]; !ok {
			t.Errorf("status %q has no entry in ValidSessionTransitions", status)
		}
	}

	for from, targets := range ValidSessionTransitions {
		for _, to := range targets {
			if _, ok := ValidSessionTransitions[to]; !ok {
				t.Errorf("transition %q -> %q points at a status with no entry", from, to)
			}
		}
	}
}

func TestMintedIsTerminal(t *testing.T) {
	if len(ValidSessionTransitions[SessionStatusMinted]) != 0 {
		t.Errorf("minted must have no outgoing transitions, got %v", ValidSessionTransitions[SessionStatusMinted])
	}
}

func TestIsValidOutputType(t *testing.T) {
	tests := []struct {
		in       string
		expected bool
	}{
		{OutputTypePhoto, true},
		{OutputTypeVideo, true},
		{"", false},
		{"Photo", false},
		{"gif", false},
	}

	for _, tt := range tests {
		if got := IsValidOutputType(tt.in); got != tt.expected {
			t.Errorf("IsValidOutputType(%q) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}

func TestNewSessionID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := NewSessionID(7, now)

	if id != "sess_7_1700000000000" {
		t.Errorf("NewSessionID(7, ...) = %q, want sess_7_1700000000000", id)
	}
	if !strings.HasPrefix(id, "sess_") {
		t.Errorf("session id %q missing sess_ prefix", id)
	}
}
