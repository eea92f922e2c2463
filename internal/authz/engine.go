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

package authz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// User is the read-only principal snapshot a decision operates on. It is
// owned by the identity collaborator; this package never mutates it.
type User struct {
	ID                string
	RoleCode          string
	OrganizationID    string
	DirectPermissions []string
}

// UserDirectory resolves a user identifier to its authorization snapshot.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (User, error)
}

// EntityOwnershipResolver resolves the organization owning a domain entity.
// Implementations return ErrEntityNotFound when the entity does not exist.
type EntityOwnershipResolver interface {
	OwnerOf(ctx context.Context, entityType string, entityID uuid.UUID) (string, error)
}

// DecisionEvent describes one authorization decision for the audit trail.
type DecisionEvent struct {
	UserID     string
	Permission string
	EntityType string
	EntityID   string
	OrgID      string
	Action     string
	Allowed    bool
	Reason     Reason
}

// AuditSink receives every decision. Implementations must be best effort: a
// failing sink never blocks or fails the decision itself.
type AuditSink interface {
	Record(ctx context.Context, event DecisionEvent)
}

// Reason tags why a decision came out the way it did.
type Reason string

const (
	ReasonAllowed           Reason = "allowed"
	ReasonOrgBoundary       Reason = "org_boundary"
	ReasonMissingPermission Reason = "missing_permission"
	ReasonUnknownAction     Reason = "unknown_action"
)

// Decision is the outcome of an entity access check. Negative outcomes are
// values, not errors; Missing carries the failing subset of the required
// permissions for diagnostics.
type Decision struct {
	Allowed bool
	Reason  Reason
	Missing []string
}

const defaultResolverTimeout = 2 * time.Second

// Engine combines the permission catalog, role registry and role graph with
// organization-boundary checks to answer access questions. Every decision is
// a pure function of the registries and the user snapshot; repeated calls
// against unchanged registries return identical results.
type Engine struct {
	catalog         *PermissionCatalog
	registry        *RoleRegistry
	graph           *RoleGraph
	actions         ActionPermissionTable
	resolver        EntityOwnershipResolver
	sink            AuditSink
	resolverTimeout time.Duration
}

// EngineOption customizes Engine construction.
type EngineOption func(*Engine)

// WithAuditSink attaches a best-effort decision sink.
func WithAuditSink(sink AuditSink) EngineOption {
	return func(e *Engine) { e.sink = sink }
}

// WithResolverTimeout bounds the external ownership lookup.
func WithResolverTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.resolverTimeout = d
		}
	}
}

// NewEngine creates a decision engine over bootstrapped registries.
func NewEngine(
	catalog *PermissionCatalog,
	registry *RoleRegistry,
	graph *RoleGraph,
	actions ActionPermissionTable,
	resolver EntityOwnershipResolver,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		catalog:         catalog,
		registry:        registry,
		graph:           graph,
		actions:         actions,
		resolver:        resolver,
		resolverTimeout: defaultResolverTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EffectivePermissionsForUser returns the user's direct grants united with
// the effective permissions of their role. An unregistered role code yields
// only the direct grants: at request time an unknown role is a denial
// surface, never a crash.
func (e *Engine) EffectivePermissionsForUser(user User) map[string]struct{} {
	perms := make(map[string]struct{}, len(user.DirectPermissions))
	for _, p := range user.DirectPermissions {
		perms[p] = struct{}{}
	}

	rolePerms, err := e.graph.EffectivePermissions(user.RoleCode)
	if err != nil {
		slog.Warn("effective permissions: unregistered role, treating as empty",
			slog.String("user_id", user.ID),
			slog.String("role", user.RoleCode),
		)
		return perms
	}
	for p := range rolePerms {
		perms[p] = struct{}{}
	}
	return perms
}

// HasPermission reports whether any grant in the user's effective set covers
// the requested permission.
func (e *Engine) HasPermission(ctx context.Context, user User, requested string) bool {
	allowed := false
	for granted := range e.EffectivePermissionsForUser(user) {
		if Matches(granted, requested) {
			allowed = true
			break
		}
	}
	e.record(ctx, DecisionEvent{
		UserID:     user.ID,
		Permission: requested,
		Allowed:    allowed,
		Reason:     reasonForPermission(allowed),
	})
	return allowed
}

func reasonForPermission(allowed bool) Reason {
	if allowed {
		return ReasonAllowed
	}
	return ReasonMissingPermission
}

// CanAccessOrganization reports whether the user may act within the given
// organization: either the user's role carries system-administrator standing,
// or the organization is the user's own. No other cross-organization grant
// exists; a shared-access mechanism would slot in here as a policy strategy,
// not as a silent default.
func (e *Engine) CanAccessOrganization(user User, orgID string) bool {
	if e.isAdminRole(user.RoleCode) {
		return true
	}
	return user.OrganizationID != "" && user.OrganizationID == orgID
}

// isAdminRole reports whether the role, or any role it transitively inherits
// from in the hierarchy, is flagged as the system-administrator role.
func (e *Engine) isAdminRole(code string) bool {
	role, ok := e.registry.Get(code)
	if !ok {
		return false
	}
	if role.IsAdmin {
		return true
	}
	descendants, err := e.graph.Descendants(code)
	if err != nil {
		return false
	}
	for d := range descendants {
		if sub, ok := e.registry.Get(d); ok && sub.IsAdmin {
			return true
		}
	}
	return false
}

// CanAccessEntity decides whether the user may perform action on the given
// entity. The decision fails closed at every step:
//
//  1. ownership resolution is bounded by the resolver timeout; an unresolved
//     entity, timeout or cancellation surfaces as ErrEntityNotFound
//  2. an organization-boundary miss is an ordinary denial tagged
//     ReasonOrgBoundary
//  3. a missing action-table entry is a configuration bug surfaced as
//     ErrUnknownAction and logged loudly, with the decision defaulting to deny
//  4. otherwise the user must hold every required permission; the failing
//     subset is returned in Decision.Missing
func (e *Engine) CanAccessEntity(ctx context.Context, user User, entityType string, entityID uuid.UUID, action string) (Decision, error) {
	rctx, cancel := context.WithTimeout(ctx, e.resolverTimeout)
	defer cancel()

	orgID, err := e.resolver.OwnerOf(rctx, entityType, entityID)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve owner of %s %s: %w", entityType, entityID, ErrEntityNotFound)
	}

	event := DecisionEvent{
		UserID:     user.ID,
		EntityType: entityType,
		EntityID:   entityID.String(),
		OrgID:      orgID,
		Action:     action,
	}

	if !e.CanAccessOrganization(user, orgID) {
		event.Reason = ReasonOrgBoundary
		e.record(ctx, event)
		return Decision{Allowed: false, Reason: ReasonOrgBoundary}, nil
	}

	required, ok := e.actions.PermissionsFor(entityType, action)
	if !ok {
		slog.ErrorContext(ctx, "no permissions configured for action",
			slog.String("entity_type", entityType),
			slog.String("action", action),
		)
		event.Reason = ReasonUnknownAction
		e.record(ctx, event)
		return Decision{Allowed: false, Reason: ReasonUnknownAction},
			fmt.Errorf("%w: %s/%s", ErrUnknownAction, entityType, action)
	}

	effective := e.EffectivePermissionsForUser(user)
	var missing []string
	for _, req := range required {
		if !anyMatch(effective, req) {
			missing = append(missing, req)
		}
	}

	if len(missing) > 0 {
		event.Reason = ReasonMissingPermission
		e.record(ctx, event)
		return Decision{Allowed: false, Reason: ReasonMissingPermission, Missing: missing}, nil
	}

	event.Allowed = true
	event.Reason = ReasonAllowed
	e.record(ctx, event)
	return Decision{Allowed: true, Reason: ReasonAllowed}, nil
}

func anyMatch(granted map[string]struct{}, requested string) bool {
	for g := range granted {
		if Matches(g, requested) {
			return true
		}
	}
	return false
}

// KnownPermission reports whether the name is registered in the catalog.
// Probing an unknown permission is legal and simply denies; callers can use
// this to tell a denial from a typo.
func (e *Engine) KnownPermission(name string) bool {
	return e.catalog.Exists(name)
}

// EffectivePermissions exposes the graph's transitive permission set for a
// role code.
func (e *Engine) EffectivePermissions(code string) (map[string]struct{}, error) {
	return e.graph.EffectivePermissions(code)
}

func (e *Engine) record(ctx context.Context, event DecisionEvent) {
	if e.sink == nil {
		return
	}
	e.sink.Record(ctx, event)
}
