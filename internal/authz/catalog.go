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
	"strings"
	"sync"
)

// PermissionName is a validated permission identifier. Values are minted only
// by PermissionCatalog.Register; raw strings belong at I/O boundaries.
type PermissionName string

func (n PermissionName) String() string { return string(n) }

// Permission is an atomic capability, immutable after registration.
type Permission struct {
	Name        PermissionName
	Category    string
	Description string
}

// ValidatePermissionName checks the canonical "<category>:<action>" form.
// Every colon-delimited token must be non-empty, and '*' is allowed only as
// the final token (the full-category wildcard, e.g. "rates:*").
func ValidatePermissionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPermission)
	}
	tokens := strings.Split(name, ":")
	if len(tokens) < 2 {
		return fmt.Errorf("%w: %q must be of the form <category>:<action>", ErrInvalidPermission, name)
	}
	for i, tok := range tokens {
		if tok == "" {
			return fmt.Errorf("%w: %q has an empty token", ErrInvalidPermission, name)
		}
		if strings.Contains(tok, "*") && !(tok == "*" && i == len(tokens)-1) {
			return fmt.Errorf("%w: %q: wildcard is only valid as the final token", ErrInvalidPermission, name)
		}
	}
	return nil
}

// PermissionCatalog is the registry of canonical permissions. It is populated
// during single-threaded bootstrap; afterwards decision calls share it as a
// read-mostly structure behind an RWMutex.
type PermissionCatalog struct {
	mu    sync.RWMutex
	perms map[PermissionName]Permission
}

// NewPermissionCatalog creates an empty catalog.
func NewPermissionCatalog() *PermissionCatalog {
	return &PermissionCatalog{perms: make(map[PermissionName]Permission)}
}

// Register validates and stores a permission. Re-registering an existing name
// fails with ErrDuplicatePermission unless overwrite is set.
func (c *PermissionCatalog) Register(name, category, description string, overwrite bool) (Permission, error) {
	if err := ValidatePermissionName(name); err != nil {
		return Permission{}, err
	}
	if category == "" {
		category = strings.SplitN(name, ":", 2)[0]
	}
	if !strings.HasPrefix(name, category+":") {
		return Permission{}, fmt.Errorf("%w: %q does not belong to category %q", ErrInvalidPermission, name, category)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := PermissionName(name)
	if _, exists := c.perms[key]; exists && !overwrite {
		return Permission{}, fmt.Errorf("%w: %s", ErrDuplicatePermission, name)
	}

	perm := Permission{
		Name:        key,
		Category:    category,
		Description: description,
	}
	c.perms[key] = perm
	return perm, nil
}

// Get returns the permission registered under name, if any.
func (c *PermissionCatalog) Get(name string) (Permission, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.perms[PermissionName(name)]
	return p, ok
}

// Exists is a fast existence probe used when validating roles and action
// tables.
func (c *PermissionCatalog) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.perms[PermissionName(name)]
	return ok
}

// ByCategory returns all permissions in a category. Order is unspecified.
func (c *PermissionCatalog) ByCategory(category string) []Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Permission
	for _, p := range c.perms {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered permissions.
func (c *PermissionCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.perms)
}
