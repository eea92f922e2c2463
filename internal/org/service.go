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

package org

import (
	"context"
	"fmt"
	"time"

	"github.com/ratedesk/ratedesk/internal/audit"
	"github.com/ratedesk/ratedesk/internal/id"
	"github.com/ratedesk/ratedesk/internal/rbac"
)

// Service provides organization management business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new organization service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
	}
}

func validType(orgType string) bool {
	switch orgType {
	case rbac.OrgTypePlatform, rbac.OrgTypeClient, rbac.OrgTypeCarrier:
		return true
	}
	return false
}

// CreateOrganization creates a new organization
func (s *Service) CreateOrganization(ctx context.Context, name, orgType, actorID string) (*Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	if !validType(orgType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, orgType)
	}

	if existing, err := s.repo.GetByName(ctx, name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrOrgExists, name)
	}

	now := time.Now()
	o := &Organization{
		ID:        id.NewUUIDv7(),
		Name:      name,
		Type:      orgType,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOrgCreated,
		OrgID:    o.ID,
		ActorID:  actorID,
		Resource: o.Name,
		Metadata: map[string]any{"org_type": o.Type},
	})

	return o, nil
}

// GetOrganization retrieves an organization by ID
func (s *Service) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	return s.repo.GetByID(ctx, orgID)
}

// GetOrganizationByName retrieves an organization by name
func (s *Service) GetOrganizationByName(ctx context.Context, name string) (*Organization, error) {
	return s.repo.GetByName(ctx, name)
}

// ListOrganizations lists organizations with pagination
func (s *Service) ListOrganizations(ctx context.Context, limit, offset int) ([]*Organization, error) {
	return s.repo.List(ctx, limit, offset)
}

// RenameOrganization changes an organization's display name
func (s *Service) RenameOrganization(ctx context.Context, orgID, name, actorID string) (*Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}

	o, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	o.Name = name
	o.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOrgUpdated,
		OrgID:    o.ID,
		ActorID:  actorID,
		Resource: o.Name,
	})

	return o, nil
}

// DeactivateOrganization marks an organization inactive. Users of an
// inactive organization keep their roles but fail the active-org check
// at the transport layer.
func (s *Service) DeactivateOrganization(ctx context.Context, orgID, actorID string) error {
	o, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if o.Status == StatusInactive {
		return nil
	}

	o.Status = StatusInactive
	o.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, o); err != nil {
		return fmt.Errorf("failed to deactivate organization: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOrgDeactivated,
		OrgID:    o.ID,
		ActorID:  actorID,
		Resource: o.Name,
	})

	return nil
}
