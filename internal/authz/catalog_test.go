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
	"errors"
	"testing"
)

func TestCatalog_RegisterAndLookup(t *testing.T) {
	c := NewPermissionCatalog()

	perm, err := c.Register("rates:create", "rates", "Create rates", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perm.Name != PermissionName("rates:create") || perm.Category != "rates" {
		t.Errorf("unexpected permission: %+v", perm)
	}

	if !c.Exists("rates:create") {
		t.Error("Exists should report a registered permission")
	}
	if c.Exists("rates:delete") {
		t.Error("Exists should not report an unregistered permission")
	}

	got, ok := c.Get("rates:create")
	if !ok || got.Description != "Create rates" {
		t.Errorf("Get returned %+v, %v", got, ok)
	}
}

func TestCatalog_DuplicateRejectedUnlessOverwrite(t *testing.T) {
	c := NewPermissionCatalog()

	if _, err := c.Register("rates:create", "rates", "v1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := c.Register("rates:create", "rates", "v2", false)
	if !errors.Is(err, ErrDuplicatePermission) {
		t.Fatalf("expected ErrDuplicatePermission, got %v", err)
	}

	if _, err := c.Register("rates:create", "rates", "v2", true); err != nil {
		t.Fatalf("overwrite should succeed, got %v", err)
	}
	got, _ := c.Get("rates:create")
	if got.Description != "v2" {
		t.Errorf("overwrite did not update: %+v", got)
	}
}

func TestCatalog_CategoryDefaultsFromName(t *testing.T) {
	c := NewPermissionCatalog()
	perm, err := c.Register("analytics:view", "", "View analytics", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perm.Category != "analytics" {
		t.Errorf("category = %q, want analytics", perm.Category)
	}
}

func TestCatalog_ByCategory(t *testing.T) {
	c := NewPermissionCatalog()
	for _, name := range []string{"rates:create", "rates:view", "analytics:view"} {
		if _, err := c.Register(name, "", "", false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rates := c.ByCategory("rates")
	if len(rates) != 2 {
		t.Errorf("ByCategory(rates) returned %d permissions, want 2", len(rates))
	}
	if got := c.ByCategory("negotiations"); len(got) != 0 {
		t.Errorf("ByCategory(negotiations) returned %d permissions, want 0", len(got))
	}
}

func TestValidatePermissionName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"rates:create", true},
		{"rates:*", true},
		{"rates:bulk:import", true},
		{"rates:bulk:*", true},
		{"", false},
		{"rates", false},
		{":create", false},
		{"rates:", false},
		{"rates:*:create", false},
		{"rates:cre*ate", false},
		{"*:create", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePermissionName(tt.name)
			if tt.valid && err != nil {
				t.Errorf("ValidatePermissionName(%q) = %v, want nil", tt.name, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidPermission) {
				t.Errorf("ValidatePermissionName(%q) = %v, want ErrInvalidPermission", tt.name, err)
			}
		})
	}
}
