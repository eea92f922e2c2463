// Copyright 2026 The RateDesk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ratedesk/ratedesk/internal/authz"
)

// Event types
const (
	TypeDecisionAllowed = "decision_allowed"
	TypeDecisionDenied  = "decision_denied"
	TypeRoleRegistered  = "role_registered"
	TypeEdgeAdded       = "hierarchy_edge_added"
	TypeOrgCreated      = "org_created"
	TypeOrgUpdated      = "org_updated"
	TypeOrgDeactivated  = "org_deactivated"
)

// Actor constants for events not attributable to a user.
const (
	ActorSystemBootstrap = "system:bootstrap"
)

// Event represents an auditable action
type Event struct {
	Type      string
	OrgID     string
	ActorID   string
	Resource  string
	Decision  string
	Reason    string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("org_id", event.OrgID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.Decision != "" {
		attrs = append(attrs, slog.String("decision", event.Decision))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	// Flatten metadata
	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			// Redact secrets
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	lowered := strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "key", "hash", "credential", "authorization"} {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	return false
}

// DecisionSink adapts an audit Logger to the decision engine's sink
// interface. Recording is best effort: the slog backend cannot fail, and the
// adapter never propagates anything back to the decision path.
type DecisionSink struct {
	logger Logger
}

// NewDecisionSink creates a sink writing decisions to the given logger.
func NewDecisionSink(logger Logger) *DecisionSink {
	return &DecisionSink{logger: logger}
}

// Record implements authz.AuditSink.
func (s *DecisionSink) Record(ctx context.Context, event authz.DecisionEvent) {
	eventType := TypeDecisionDenied
	decision := "deny"
	if event.Allowed {
		eventType = TypeDecisionAllowed
		decision = "allow"
	}

	resource := event.Permission
	if event.EntityType != "" {
		resource = event.EntityType + "/" + event.EntityID
	}

	metadata := map[string]any{}
	if event.Action != "" {
		metadata["action"] = event.Action
	}
	if event.Permission != "" {
		metadata["permission"] = event.Permission
	}

	s.logger.Log(ctx, Event{
		Type:     eventType,
		OrgID:    event.OrgID,
		ActorID:  event.UserID,
		Resource: resource,
		Decision: decision,
		Reason:   string(event.Reason),
		Metadata: metadata,
	})
}
