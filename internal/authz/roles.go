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
	"fmt"
	"sync"
)

// Role is a named bundle of permissions, optionally scoped to an organization
// type ("client", "carrier", "platform"). Permission entries may themselves be
// category wildcards, e.g. a role granted "rates:*" directly.
type Role struct {
	Code             string
	Name             string
	Description      string
	Permissions      []string
	IsAdmin          bool
	OrganizationType string
}

// HasPermission checks whether the role's own permission bundle covers the
// requested permission, honoring wildcard grants. It does not consider
// hierarchy; see RoleGraph.EffectivePermissions for the transitive view.
func (r *Role) HasPermission(permission string) bool {
	for _, p := range r.Permissions {
		if Matches(p, permission) {
			return true
		}
	}
	return false
}

// RoleRegistry stores roles by code. Re-registration overwrites the previous
// definition and notifies subscribers so cached effective-permission sets can
// be invalidated.
type RoleRegistry struct {
	mu       sync.RWMutex
	catalog  *PermissionCatalog
	roles    map[string]Role
	onChange []func()
}

// NewRoleRegistry creates a registry. When catalog is non-nil every permission
// named by a registered role must already exist in it; this keeps unknown
// permission strings a bootstrap failure rather than a silent request-time
// no-op.
func NewRoleRegistry(catalog *PermissionCatalog) *RoleRegistry {
	return &RoleRegistry{
		catalog: catalog,
		roles:   make(map[string]Role),
	}
}

// Subscribe registers a callback invoked after any role mutation. Used by
// RoleGraph to drop its effective-permission cache.
func (r *RoleRegistry) Subscribe(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// Register stores a role by code, overwriting any previous registration.
func (r *RoleRegistry) Register(role Role) error {
	if role.Code == "" {
		return fmt.Errorf("%w: empty role code", ErrUnknownRole)
	}
	for _, p := range role.Permissions {
		if err := ValidatePermissionName(p); err != nil {
			return fmt.Errorf("role %s: %w", role.Code, err)
		}
		if r.catalog != nil && !r.catalog.Exists(p) {
			return fmt.Errorf("role %s: %w: %s", role.Code, ErrUnknownPermission, p)
		}
	}

	r.mu.Lock()
	r.roles[role.Code] = role
	subscribers := make([]func(), len(r.onChange))
	copy(subscribers, r.onChange)
	r.mu.Unlock()

	// Notify outside the lock; subscribers may take their own locks.
	for _, fn := range subscribers {
		fn()
	}
	return nil
}

// Get returns the role registered under code.
func (r *RoleRegistry) Get(code string) (Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[code]
	return role, ok
}

// Exists reports whether a role code is registered.
func (r *RoleRegistry) Exists(code string) bool {
	_, ok := r.Get(code)
	return ok
}

// ByOrganizationType returns all roles scoped to the given organization type.
// Roles with an empty scope apply to every organization type and are included.
func (r *RoleRegistry) ByOrganizationType(kind string) []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Role
	for _, role := range r.roles {
		if role.OrganizationType == "" || role.OrganizationType == kind {
			out = append(out, role)
		}
	}
	return out
}

// List returns all registered roles. Order is unspecified.
func (r *RoleRegistry) List() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out
}
