package models

import "time"

// Permission is one recognized capability key, e.g. "invoice.view".
// Category is cosmetic grouping only. An inactive permission never grants
// access even while still linked to roles.
type Permission struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Role groups a set of permissions under a unique, case-sensitive name.
// System-flagged roles grant blanket access and cannot be edited or deleted.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsSystem    bool      `json:"is_system"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRoleRequest is the payload for role creation.
type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleRequest is the payload for role updates. Omitted fields keep
// their current value; a present Permissions field rewrites the set
// wholesale, so an explicit empty list strips every permission.
type UpdateRoleRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
}
