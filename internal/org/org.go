package org

import (
	"time"
)

// Organization represents a company on the platform: the platform operator
// itself, a shipper buying freight, or a carrier selling capacity.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlatformOrgID is the ID of the platform operator organization
const PlatformOrgID = "platform"

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
