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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ratedesk/ratedesk/internal/authz"
)

// DirectoryRepository implements authz.UserDirectory against the users table
type DirectoryRepository struct {
	db *DB
}

// NewDirectoryRepository creates a new user directory repository
func NewDirectoryRepository(db *DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// Lookup returns the authorization-relevant snapshot of a user
func (r *DirectoryRepository) Lookup(ctx context.Context, userID string) (authz.User, error) {
	var user authz.User
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, role_code, organization_id, direct_permissions
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`, userID).Scan(&user.ID, &user.RoleCode, &user.OrganizationID, &user.DirectPermissions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.User{}, authz.ErrEntityNotFound
		}
		return authz.User{}, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}
