package org

import (
	"context"
	"errors"
)

var (
	ErrOrgNotFound  = errors.New("organization not found")
	ErrOrgExists    = errors.New("organization already exists")
	ErrInvalidType  = errors.New("invalid organization type")
	ErrOrgNotActive = errors.New("organization is not active")
)

// Repository defines the interface for organization storage
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	GetByName(ctx context.Context, name string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	List(ctx context.Context, limit, offset int) ([]*Organization, error)
}
