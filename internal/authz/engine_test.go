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

package authz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ratedesk/ratedesk/internal/authz"
)

// MockOwnershipResolver implements authz.EntityOwnershipResolver for testing.
type MockOwnershipResolver struct {
	owners map[uuid.UUID]string
	delay  time.Duration
}

func (m *MockOwnershipResolver) OwnerOf(ctx context.Context, entityType string, entityID uuid.UUID) (string, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	org, ok := m.owners[entityID]
	if !ok {
		return "", authz.ErrEntityNotFound
	}
	return org, nil
}

// MockAuditSink records decision events; optionally panics to prove the
// engine treats sinks as best effort at the interface level.
type MockAuditSink struct {
	events []authz.DecisionEvent
}

func (m *MockAuditSink) Record(ctx context.Context, event authz.DecisionEvent) {
	m.events = append(m.events, event)
}

type engineFixture struct {
	catalog  *authz.PermissionCatalog
	registry *authz.RoleRegistry
	graph    *authz.RoleGraph
	actions  *authz.ActionTable
	resolver *MockOwnershipResolver
	sink     *MockAuditSink
	engine   *authz.Engine
}

func newEngineFixture(t *testing.T, opts ...authz.EngineOption) *engineFixture {
	t.Helper()

	catalog := authz.NewPermissionCatalog()
	for _, name := range []string{
		"rates:*", "rates:create", "rates:view", "rates:delete", "rates:approve",
		"analytics:view", "negotiations:view", "orgs:manage",
	} {
		if _, err := catalog.Register(name, "", "", false); err != nil {
			t.Fatalf("register permission %s: %v", name, err)
		}
	}

	registry := authz.NewRoleRegistry(catalog)
	graph := authz.NewRoleGraph(registry)
	roles := []authz.Role{
		{Code: "SYSTEM_ADMIN", Permissions: []string{"orgs:manage"}, IsAdmin: true},
		{Code: "RATE_ADMIN", Permissions: []string{"rates:*"}},
		{Code: "APPROVER", Permissions: []string{"rates:approve"}},
		{Code: "ANALYST", Permissions: []string{"analytics:view"}},
		{Code: "VIEWER", Permissions: []string{"rates:view"}},
	}
	for _, r := range roles {
		if err := registry.Register(r); err != nil {
			t.Fatalf("register role %s: %v", r.Code, err)
		}
	}
	for _, e := range [][2]string{
		{"SYSTEM_ADMIN", "RATE_ADMIN"},
		{"RATE_ADMIN", "APPROVER"},
		{"RATE_ADMIN", "ANALYST"},
	} {
		if err := graph.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("add edge %v: %v", e, err)
		}
	}

	actions := authz.NewActionTable(catalog)
	for _, a := range []struct {
		entityType, action string
		perms              []string
	}{
		{"rate", "view", []string{"rates:view"}},
		{"rate", "delete", []string{"rates:delete"}},
		{"rate", "approve", []string{"rates:approve"}},
	} {
		if err := actions.Register(a.entityType, a.action, a.perms...); err != nil {
			t.Fatalf("register action %s/%s: %v", a.entityType, a.action, err)
		}
	}

	resolver := &MockOwnershipResolver{owners: map[uuid.UUID]string{}}
	sink := &MockAuditSink{}
	opts = append([]authz.EngineOption{authz.WithAuditSink(sink)}, opts...)
	engine := authz.NewEngine(catalog, registry, graph, actions, resolver, opts...)

	return &engineFixture{
		catalog:  catalog,
		registry: registry,
		graph:    graph,
		actions:  actions,
		resolver: resolver,
		sink:     sink,
		engine:   engine,
	}
}

// TestPurpose: Validates that a role's own permission bundle is honored and
// nothing beyond it leaks in (spec scenario: approver may approve, not delete).
// Scope: Unit Test
// Security: Core permission enforcement
// Expected: rates:approve allowed, rates:delete denied.
func TestEngine_HasPermission_OwnBundleOnly(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user := authz.User{ID: "u1", RoleCode: "APPROVER", OrganizationID: "org-1"}

	if !f.engine.HasPermission(ctx, user, "rates:approve") {
		t.Error("APPROVER should hold rates:approve")
	}
	if f.engine.HasPermission(ctx, user, "rates:delete") {
		t.Error("APPROVER should NOT hold rates:delete")
	}
}

func TestEngine_HasPermission_InheritsDescendants(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user := authz.User{ID: "u2", RoleCode: "RATE_ADMIN", OrganizationID: "org-1"}

	// Own wildcard bundle plus both subordinate bundles.
	for _, p := range []string{"rates:approve", "rates:create", "analytics:view"} {
		if !f.engine.HasPermission(ctx, user, p) {
			t.Errorf("RATE_ADMIN should hold %s via hierarchy", p)
		}
	}
	if f.engine.HasPermission(ctx, user, "orgs:manage") {
		t.Error("RATE_ADMIN must not inherit upward from SYSTEM_ADMIN")
	}
}

func TestEngine_HasPermission_DirectGrants(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user := authz.User{
		ID:                "u3",
		RoleCode:          "VIEWER",
		OrganizationID:    "org-1",
		DirectPermissions: []string{"analytics:view"},
	}

	if !f.engine.HasPermission(ctx, user, "analytics:view") {
		t.Error("direct grant should be honored")
	}
	if !f.engine.HasPermission(ctx, user, "rates:view") {
		t.Error("role bundle should still apply alongside direct grants")
	}
}

func TestEngine_HasPermission_UnknownRoleDeniesNotCrashes(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user := authz.User{ID: "u4", RoleCode: "GHOST", DirectPermissions: []string{"rates:view"}}

	if f.engine.HasPermission(ctx, user, "rates:approve") {
		t.Error("unknown role must deny role-derived permissions")
	}
	if !f.engine.HasPermission(ctx, user, "rates:view") {
		t.Error("direct grants still apply when the role is unknown")
	}
}

func TestEngine_HasPermission_Deterministic(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user := authz.User{ID: "u5", RoleCode: "RATE_ADMIN", OrganizationID: "org-1"}

	first := f.engine.HasPermission(ctx, user, "rates:approve")
	for i := 0; i < 50; i++ {
		if f.engine.HasPermission(ctx, user, "rates:approve") != first {
			t.Fatal("HasPermission must be deterministic against an unchanged registry")
		}
	}
}

// TestPurpose: Validates the organization boundary: a non-admin user is
// confined to their own organization regardless of permission bundle, while
// the system administrator crosses boundaries.
// Scope: Unit Test
// Security: Organization isolation (prevents lateral movement)
// Expected: cross-org access denied for RATE_ADMIN, granted for SYSTEM_ADMIN.
func TestEngine_OrgBoundary(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	entityID := uuid.New()
	f.resolver.owners[entityID] = "org-B"

	intruder := authz.User{ID: "u6", RoleCode: "RATE_ADMIN", OrganizationID: "org-A"}
	decision, err := f.engine.CanAccessEntity(ctx, intruder, "rate", entityID, "view")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("cross-organization access must be denied for non-admin roles")
	}
	if decision.Reason != authz.ReasonOrgBoundary {
		t.Errorf("reason = %s, want %s", decision.Reason, authz.ReasonOrgBoundary)
	}

	admin := authz.User{ID: "u7", RoleCode: "SYSTEM_ADMIN", OrganizationID: "org-A"}
	if !f.engine.CanAccessOrganization(admin, "org-B") {
		t.Error("system administrator must cross organization boundaries")
	}

	member := authz.User{ID: "u8", RoleCode: "VIEWER", OrganizationID: "org-B"}
	if !f.engine.CanAccessOrganization(member, "org-B") {
		t.Error("same-organization access must be granted")
	}
}

func TestEngine_CanAccessEntity_Allowed(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	entityID := uuid.New()
	f.resolver.owners[entityID] = "org-1"
	user := authz.User{ID: "u9", RoleCode: "APPROVER", OrganizationID: "org-1"}

	decision, err := f.engine.CanAccessEntity(ctx, user, "rate", entityID, "approve")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed || decision.Reason != authz.ReasonAllowed {
		t.Errorf("decision = %+v, want allowed", decision)
	}
}

func TestEngine_CanAccessEntity_MissingPermissionSubset(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	entityID := uuid.New()
	f.resolver.owners[entityID] = "org-1"
	user := authz.User{ID: "u10", RoleCode: "APPROVER", OrganizationID: "org-1"}

	decision, err := f.engine.CanAccessEntity(ctx, user, "rate", entityID, "delete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("APPROVER must not delete rates")
	}
	if len(decision.Missing) != 1 || decision.Missing[0] != "rates:delete" {
		t.Errorf("Missing = %v, want [rates:delete]", decision.Missing)
	}
}

// TestPurpose: Validates that an unknown entity yields a typed error, not a
// silent denial, so callers can distinguish configuration and data problems
// from policy decisions.
// Scope: Unit Test
// Security: Fail-closed error taxonomy
// Expected: ErrEntityNotFound.
func TestEngine_CanAccessEntity_EntityNotFound(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user := authz.User{ID: "u11", RoleCode: "SYSTEM_ADMIN", OrganizationID: "org-1"}

	_, err := f.engine.CanAccessEntity(ctx, user, "rate", uuid.New(), "view")
	if !errors.Is(err, authz.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestEngine_CanAccessEntity_ResolverTimeout(t *testing.T) {
	f := newEngineFixture(t, authz.WithResolverTimeout(10*time.Millisecond))
	f.resolver.delay = 200 * time.Millisecond

	entityID := uuid.New()
	f.resolver.owners[entityID] = "org-1"
	user := authz.User{ID: "u12", RoleCode: "VIEWER", OrganizationID: "org-1"}

	_, err := f.engine.CanAccessEntity(context.Background(), user, "rate", entityID, "view")
	if !errors.Is(err, authz.ErrEntityNotFound) {
		t.Errorf("resolver timeout must surface as ErrEntityNotFound, got %v", err)
	}
}

func TestEngine_CanAccessEntity_UnknownAction(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	entityID := uuid.New()
	f.resolver.owners[entityID] = "org-1"
	user := authz.User{ID: "u13", RoleCode: "RATE_ADMIN", OrganizationID: "org-1"}

	decision, err := f.engine.CanAccessEntity(ctx, user, "rate", entityID, "transmogrify")
	if !errors.Is(err, authz.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if decision.Allowed {
		t.Error("unknown action must default to deny")
	}
}

func TestEngine_AuditSinkReceivesDecisions(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	entityID := uuid.New()
	f.resolver.owners[entityID] = "org-1"
	user := authz.User{ID: "u14", RoleCode: "VIEWER", OrganizationID: "org-1"}

	if _, err := f.engine.CanAccessEntity(ctx, user, "rate", entityID, "view"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.engine.HasPermission(ctx, user, "rates:view")

	if len(f.sink.events) != 2 {
		t.Fatalf("sink received %d events, want 2", len(f.sink.events))
	}
	if !f.sink.events[0].Allowed || f.sink.events[0].UserID != "u14" {
		t.Errorf("unexpected first event: %+v", f.sink.events[0])
	}
}

func TestEngine_NoSinkIsFine(t *testing.T) {
	f := newEngineFixture(t)
	engine := authz.NewEngine(f.catalog, f.registry, f.graph, f.actions, f.resolver)

	user := authz.User{ID: "u15", RoleCode: "VIEWER", OrganizationID: "org-1"}
	if !engine.HasPermission(context.Background(), user, "rates:view") {
		t.Error("decision must work without an audit sink")
	}
}
