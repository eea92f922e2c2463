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

	"github.com/ratedesk/ratedesk/internal/org"
)

// OrgRepository implements org.Repository
type OrgRepository struct {
	db *DB
}

// NewOrgRepository creates a new organization repository
func NewOrgRepository(db *DB) *OrgRepository {
	return &OrgRepository{db: db}
}

// Create creates a new organization
func (r *OrgRepository) Create(ctx context.Context, o *org.Organization) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO organizations (id, name, org_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.Name, o.Type, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrgRepository) GetByID(ctx context.Context, id string) (*org.Organization, error) {
	return r.scanOne(r.db.pool.QueryRow(ctx, `
		SELECT id, name, org_type, status, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`, id))
}

// GetByName retrieves an organization by name
func (r *OrgRepository) GetByName(ctx context.Context, name string) (*org.Organization, error) {
	return r.scanOne(r.db.pool.QueryRow(ctx, `
		SELECT id, name, org_type, status, created_at, updated_at
		FROM organizations
		WHERE name = $1
	`, name))
}

// Update updates an organization's mutable fields
func (r *OrgRepository) Update(ctx context.Context, o *org.Organization) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE organizations
		SET name = $2, status = $3, updated_at = $4
		WHERE id = $1
	`, o.ID, o.Name, o.Status, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return org.ErrOrgNotFound
	}
	return nil
}

// List lists organizations ordered by creation time
func (r *OrgRepository) List(ctx context.Context, limit, offset int) ([]*org.Organization, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, org_type, status, created_at, updated_at
		FROM organizations
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*org.Organization
	for rows.Next() {
		var o org.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Type, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, &o)
	}
	return orgs, rows.Err()
}

func (r *OrgRepository) scanOne(row pgx.Row) (*org.Organization, error) {
	var o org.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Type, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &o, nil
}
