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

// Package system provides integration tests that run against a real PostgreSQL database.
//
// Test Execution:
//
//	INTEGRATION_TEST=true go test -v ./tests/system/...
//
// Prerequisites:
//
//	docker compose up -d postgres
//
// Test Categories:
//   - ORG-*: Organization boundary tests
//   - AUT-*: Authorization decision tests
package system

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratedesk/ratedesk/internal/audit"
	"github.com/ratedesk/ratedesk/internal/authz"
	"github.com/ratedesk/ratedesk/internal/id"
	"github.com/ratedesk/ratedesk/internal/org"
	"github.com/ratedesk/ratedesk/internal/rbac"
	"github.com/ratedesk/ratedesk/internal/store/postgres"
)

// testDB is the shared database connection for integration tests
var testDB *postgres.DB

// TestMain sets up and tears down the test database connection
func TestMain(m *testing.M) {
	// Skip if not integration test
	if os.Getenv("INTEGRATION_TEST") != "true" {
		os.Exit(0)
	}

	// Setup database
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         getEnvOrDefault("DB_HOST", "localhost"),
		Port:         getEnvOrDefault("DB_PORT", "5432"),
		User:         getEnvOrDefault("DB_USER", "ratedesk"),
		Password:     getEnvOrDefault("DB_PASSWORD", "ratedesk_dev_password"),
		Database:     getEnvOrDefault("DB_NAME", "ratedesk"),
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	testDB = db

	// Apply migrations
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		// Ignore errors for already existing tables
		_ = err
	}

	code := m.Run()

	db.Close()
	os.Exit(code)
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type systemFixture struct {
	engine     *authz.Engine
	orgService *org.Service
	ownership  *postgres.OwnershipRepository
	directory  *postgres.DirectoryRepository
}

func newSystemFixture(t *testing.T) *systemFixture {
	t.Helper()

	registries, err := rbac.Bootstrap()
	require.NoError(t, err)

	ownership := postgres.NewOwnershipRepository(testDB)
	engine := authz.NewEngine(
		registries.Catalog,
		registries.Registry,
		registries.Graph,
		registries.Actions,
		ownership,
		authz.WithAuditSink(audit.NewDecisionSink(audit.NewSlogLogger())),
	)

	return &systemFixture{
		engine:     engine,
		orgService: org.NewService(postgres.NewOrgRepository(testDB), audit.NewSlogLogger()),
		ownership:  ownership,
		directory:  postgres.NewDirectoryRepository(testDB),
	}
}

func createUser(t *testing.T, orgID, roleCode string) string {
	t.Helper()
	ctx := context.Background()
	userID := id.NewUUIDv7()
	_, err := testDB.Pool().Exec(ctx, `
		INSERT INTO users (id, organization_id, role_code)
		VALUES ($1, $2, $3)
	`, userID, orgID, roleCode)
	require.NoError(t, err)
	return userID
}

// TestPurpose: Validates end-to-end organization boundary enforcement over real storage.
// Scope: Integration Test
// Security: Cross-organization access prevention (CWE-639)
// Expected: A rate admin can act on rates in their own org but not on another org's rates.
// Test Case ID: ORG-SYS-01
func TestSystem_OrgBoundary_EntityDecisions(t *testing.T) {
	fx := newSystemFixture(t)
	ctx := context.Background()

	orgA, err := fx.orgService.CreateOrganization(ctx, "SysTest Client "+id.NewUUIDv7(), rbac.OrgTypeClient, audit.ActorSystemBootstrap)
	require.NoError(t, err)
	orgB, err := fx.orgService.CreateOrganization(ctx, "SysTest Carrier "+id.NewUUIDv7(), rbac.OrgTypeCarrier, audit.ActorSystemBootstrap)
	require.NoError(t, err)

	rateID := uuid.New()
	require.NoError(t, fx.ownership.RecordEntity(ctx, rbac.EntityRate, rateID, orgA.ID))

	adminAID := createUser(t, orgA.ID, rbac.RoleRateAdmin)
	adminBID := createUser(t, orgB.ID, rbac.RoleRateAdmin)

	adminA, err := fx.directory.Lookup(ctx, adminAID)
	require.NoError(t, err)
	adminB, err := fx.directory.Lookup(ctx, adminBID)
	require.NoError(t, err)

	decision, err := fx.engine.CanAccessEntity(ctx, adminA, rbac.EntityRate, rateID, "update")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = fx.engine.CanAccessEntity(ctx, adminB, rbac.EntityRate, rateID, "update")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonOrgBoundary, decision.Reason)
}

// TestPurpose: Validates that the system admin role crosses organization boundaries.
// Scope: Integration Test
// Security: Controlled administrative override
// Expected: A SYSTEM_ADMIN in the platform org can act on any org's entities.
// Test Case ID: ORG-SYS-02
func TestSystem_SystemAdmin_CrossesBoundary(t *testing.T) {
	fx := newSystemFixture(t)
	ctx := context.Background()

	platform, err := fx.orgService.CreateOrganization(ctx, "SysTest Platform "+id.NewUUIDv7(), rbac.OrgTypePlatform, audit.ActorSystemBootstrap)
	require.NoError(t, err)
	client, err := fx.orgService.CreateOrganization(ctx, "SysTest Client2 "+id.NewUUIDv7(), rbac.OrgTypeClient, audit.ActorSystemBootstrap)
	require.NoError(t, err)

	negotiationID := uuid.New()
	require.NoError(t, fx.ownership.RecordEntity(ctx, rbac.EntityNegotiation, negotiationID, client.ID))

	sysAdminID := createUser(t, platform.ID, rbac.RoleSystemAdmin)
	sysAdmin, err := fx.directory.Lookup(ctx, sysAdminID)
	require.NoError(t, err)

	decision, err := fx.engine.CanAccessEntity(ctx, sysAdmin, rbac.EntityNegotiation, negotiationID, "view")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

// TestPurpose: Validates that unknown entities fail closed end to end.
// Scope: Integration Test
// Security: Fail-closed on missing ownership data
// Expected: CanAccessEntity returns ErrEntityNotFound for unregistered entities.
// Test Case ID: AUT-SYS-01
func TestSystem_UnknownEntity_FailsClosed(t *testing.T) {
	fx := newSystemFixture(t)
	ctx := context.Background()

	orgA, err := fx.orgService.CreateOrganization(ctx, "SysTest Client3 "+id.NewUUIDv7(), rbac.OrgTypeClient, audit.ActorSystemBootstrap)
	require.NoError(t, err)
	userID := createUser(t, orgA.ID, rbac.RoleRateAdmin)
	user, err := fx.directory.Lookup(ctx, userID)
	require.NoError(t, err)

	_, err = fx.engine.CanAccessEntity(ctx, user, rbac.EntityRate, uuid.New(), "view")
	assert.ErrorIs(t, err, authz.ErrEntityNotFound)
}
