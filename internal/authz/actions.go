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

// ActionPermissionTable maps an (entity type, action) pair to the permissions
// a user must hold for that action. Loaded at bootstrap alongside roles.
type ActionPermissionTable interface {
	PermissionsFor(entityType, action string) ([]string, bool)
}

// ActionTable is the in-memory ActionPermissionTable used by the server. All
// entries are registered during bootstrap and validated against the catalog.
type ActionTable struct {
	mu      sync.RWMutex
	catalog *PermissionCatalog
	entries map[actionKey][]string
}

type actionKey struct {
	entityType string
	action     string
}

// NewActionTable creates an empty table. When catalog is non-nil, registered
// permissions must already exist in it.
func NewActionTable(catalog *PermissionCatalog) *ActionTable {
	return &ActionTable{
		catalog: catalog,
		entries: make(map[actionKey][]string),
	}
}

// Register stores the required permissions for an action on an entity type,
// replacing any previous entry.
func (t *ActionTable) Register(entityType, action string, permissions ...string) error {
	if entityType == "" || action == "" {
		return fmt.Errorf("%w: entity type and action are required", ErrUnknownAction)
	}
	for _, p := range permissions {
		if err := ValidatePermissionName(p); err != nil {
			return fmt.Errorf("action %s/%s: %w", entityType, action, err)
		}
		if t.catalog != nil && !t.catalog.Exists(p) {
			return fmt.Errorf("action %s/%s: %w: %s", entityType, action, ErrUnknownPermission, p)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[actionKey{entityType, action}] = append([]string(nil), permissions...)
	return nil
}

// PermissionsFor returns the permissions required for an action, and whether
// the table has an entry for it at all. A missing entry is a configuration
// bug, not a denial; callers surface it as ErrUnknownAction.
func (t *ActionTable) PermissionsFor(entityType, action string) ([]string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	perms, ok := t.entries[actionKey{entityType, action}]
	if !ok {
		return nil, false
	}
	return append([]string(nil), perms...), true
}
