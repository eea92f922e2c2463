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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ratedesk/ratedesk/internal/authz"
)

// OwnershipRepository implements authz.EntityOwnershipResolver. Queries
// inherit the caller's context, so the engine's resolver deadline bounds
// the round trip.
type OwnershipRepository struct {
	db *DB
}

// NewOwnershipRepository creates a new ownership repository
func NewOwnershipRepository(db *DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// OwnerOf returns the ID of the organization owning the given entity
func (r *OwnershipRepository) OwnerOf(ctx context.Context, entityType string, entityID uuid.UUID) (string, error) {
	var orgID string
	err := r.db.pool.QueryRow(ctx, `
		SELECT organization_id
		FROM entities
		WHERE entity_type = $1 AND id = $2
	`, entityType, entityID).Scan(&orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", authz.ErrEntityNotFound
		}
		return "", fmt.Errorf("failed to resolve entity owner: %w", err)
	}
	return orgID, nil
}

// RecordEntity registers an entity's owning organization. Upstream
// services call this when a rate, negotiation or rate card is created.
func (r *OwnershipRepository) RecordEntity(ctx context.Context, entityType string, entityID uuid.UUID, orgID string) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO entities (entity_type, id, organization_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_type, id) DO NOTHING
	`, entityType, entityID, orgID)
	if err != nil {
		return fmt.Errorf("failed to record entity: %w", err)
	}
	return nil
}
