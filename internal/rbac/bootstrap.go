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

package rbac

import (
	"fmt"

	"github.com/ratedesk/ratedesk/internal/authz"
)

// Registries bundles the bootstrapped authorization registries.
type Registries struct {
	Catalog  *authz.PermissionCatalog
	Registry *authz.RoleRegistry
	Graph    *authz.RoleGraph
	Actions  *authz.ActionTable
}

// Bootstrap builds the permission catalog, role registry, role graph and
// action table from the canonical seed data. Any configuration error (a
// duplicate permission, an unknown code, a cycle) aborts startup; the
// decision path can then never encounter one.
func Bootstrap() (*Registries, error) {
	return BootstrapWith(Permissions, Roles, Edges, Actions)
}

// BootstrapWith builds registries from explicit seed slices. Tests use it to
// assemble small isolated registries.
func BootstrapWith(perms []PermissionSeed, roles []RoleSeed, edges []EdgeSeed, actions []ActionSeed) (*Registries, error) {
	catalog := authz.NewPermissionCatalog()
	for _, p := range perms {
		if _, err := catalog.Register(p.Name, p.Category, p.Description, false); err != nil {
			return nil, fmt.Errorf("rbac bootstrap: register permission %s: %w", p.Name, err)
		}
	}

	registry := authz.NewRoleRegistry(catalog)
	graph := authz.NewRoleGraph(registry)
	for _, r := range roles {
		role := authz.Role{
			Code:             r.Code,
			Name:             r.Name,
			Description:      r.Description,
			Permissions:      r.Permissions,
			IsAdmin:          r.IsAdmin,
			OrganizationType: r.OrganizationType,
		}
		if err := registry.Register(role); err != nil {
			return nil, fmt.Errorf("rbac bootstrap: register role %s: %w", r.Code, err)
		}
	}

	for _, e := range edges {
		if err := graph.AddEdge(e.Superior, e.Subordinate); err != nil {
			return nil, fmt.Errorf("rbac bootstrap: edge %s -> %s: %w", e.Superior, e.Subordinate, err)
		}
	}

	table := authz.NewActionTable(catalog)
	for _, a := range actions {
		if err := table.Register(a.EntityType, a.Action, a.Permissions...); err != nil {
			return nil, fmt.Errorf("rbac bootstrap: action %s/%s: %w", a.EntityType, a.Action, err)
		}
	}

	return &Registries{
		Catalog:  catalog,
		Registry: registry,
		Graph:    graph,
		Actions:  table,
	}, nil
}
