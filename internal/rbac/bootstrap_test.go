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

package rbac_test

import (
	"errors"
	"testing"

	"github.com/ratedesk/ratedesk/internal/authz"
	"github.com/ratedesk/ratedesk/internal/rbac"
)

func TestBootstrap_SeedsLoad(t *testing.T) {
	regs, err := rbac.Bootstrap()
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	if regs.Catalog.Len() != len(rbac.Permissions) {
		t.Errorf("catalog has %d permissions, want %d", regs.Catalog.Len(), len(rbac.Permissions))
	}
	for _, seed := range rbac.Roles {
		if !regs.Registry.Exists(seed.Code) {
			t.Errorf("role %s missing after bootstrap", seed.Code)
		}
	}
	if _, ok := regs.Actions.PermissionsFor(rbac.EntityRate, "approve"); !ok {
		t.Error("action table missing rate/approve")
	}
}

func TestBootstrap_ClientAdminInheritsRateLifecycle(t *testing.T) {
	regs, err := rbac.Bootstrap()
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	perms, err := regs.Graph.EffectivePermissions(rbac.RoleClientAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// CLIENT_ADMIN supervises RATE_ADMIN and so receives its capabilities,
	// including the bundles RATE_ADMIN inherits from APPROVER and ANALYST.
	for _, want := range []string{rbac.PermRatesAll, rbac.PermRatesApprove, rbac.PermAnalyticsView, rbac.PermUsersManage} {
		if _, ok := perms[want]; !ok {
			t.Errorf("CLIENT_ADMIN effective permissions missing %s", want)
		}
	}
	if _, ok := perms[rbac.PermOrgsManage]; ok {
		t.Error("CLIENT_ADMIN must not inherit upward from SYSTEM_ADMIN")
	}
}

func TestBootstrap_OnlySystemAdminIsAdmin(t *testing.T) {
	regs, err := rbac.Bootstrap()
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	for _, role := range regs.Registry.List() {
		if role.IsAdmin != (role.Code == rbac.RoleSystemAdmin) {
			t.Errorf("role %s: IsAdmin = %v", role.Code, role.IsAdmin)
		}
	}
}

func TestBootstrapWith_RejectsBadSeeds(t *testing.T) {
	perms := []rbac.PermissionSeed{{Name: "rates:view", Category: "rates"}}

	_, err := rbac.BootstrapWith(perms,
		[]rbac.RoleSeed{{Code: "A", Permissions: []string{"rates:delete"}}},
		nil, nil)
	if !errors.Is(err, authz.ErrUnknownPermission) {
		t.Errorf("unknown role permission: got %v", err)
	}

	roles := []rbac.RoleSeed{
		{Code: "A", Permissions: []string{"rates:view"}},
		{Code: "B", Permissions: []string{"rates:view"}},
	}
	_, err = rbac.BootstrapWith(perms, roles,
		[]rbac.EdgeSeed{{Superior: "A", Subordinate: "B"}, {Superior: "B", Subordinate: "A"}},
		nil)
	if !errors.Is(err, authz.ErrCyclicHierarchy) {
		t.Errorf("cyclic edges: got %v", err)
	}

	_, err = rbac.BootstrapWith(perms, roles, nil,
		[]rbac.ActionSeed{{EntityType: "rate", Action: "delete", Permissions: []string{"rates:delete"}}})
	if !errors.Is(err, authz.ErrUnknownPermission) {
		t.Errorf("unknown action permission: got %v", err)
	}
}
