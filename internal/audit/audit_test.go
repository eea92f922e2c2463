package audit

import (
	"context"
	"testing"

	"github.com/ratedesk/ratedesk/internal/authz"
)

// TestPurpose: Validates that sensitive keys are correctly identified as secrets to prevent them from being logged in plaintext.
// Scope: Unit Test
// Security: Data Masking and Leakage Prevention (CWE-532)
// Expected: Returns true for keys containing 'password', 'token', 'secret', etc., and false for non-sensitive keys.
// Test Case ID: AUD-01
func TestAudit_IsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"Password", true},
		{"PASSWORD", true},
		{"token", true},
		{"access_token", true},
		{"secret", true},
		{"api_key", true},
		{"hash", true},
		{"password_hash", true},
		{"credential", true},
		{"private_key", true},
		{"user_id", false},
		{"org_id", false},
		{"email", false},
		{"status", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSecret(tt.key); got != tt.isSecret {
				t.Errorf("isSecret(%q) = %v, want %v", tt.key, got, tt.isSecret)
			}
		})
	}
}

type captureLogger struct {
	events []Event
}

func (c *captureLogger) Log(ctx context.Context, event Event) {
	c.events = append(c.events, event)
}

func TestDecisionSink_MapsDecisionEvents(t *testing.T) {
	capture := &captureLogger{}
	sink := NewDecisionSink(capture)

	sink.Record(context.Background(), authz.DecisionEvent{
		UserID:     "u1",
		EntityType: "rate",
		EntityID:   "e1",
		OrgID:      "org-1",
		Action:     "approve",
		Allowed:    true,
		Reason:     authz.ReasonAllowed,
	})
	sink.Record(context.Background(), authz.DecisionEvent{
		UserID:     "u2",
		Permission: "rates:delete",
		Allowed:    false,
		Reason:     authz.ReasonMissingPermission,
	})

	if len(capture.events) != 2 {
		t.Fatalf("captured %d events, want 2", len(capture.events))
	}
	if capture.events[0].Type != TypeDecisionAllowed || capture.events[0].Resource != "rate/e1" {
		t.Errorf("unexpected allowed event: %+v", capture.events[0])
	}
	if capture.events[1].Type != TypeDecisionDenied || capture.events[1].Reason != string(authz.ReasonMissingPermission) {
		t.Errorf("unexpected denied event: %+v", capture.events[1])
	}
}
