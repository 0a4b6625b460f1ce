// Package model holds the persisted entities shared by the policy engine, the services and the storages.
package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

var Roles = []Role{RoleAdmin, RoleStudent}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Profile is the one-per-principal public profile. Its ID is the principal id issued by the identity provider.
type Profile struct {
	ID        string      `json:"id" db:"id"`
	FullName  null.String `json:"full_name" db:"full_name"`
	AvatarURL null.String `json:"avatar_url" db:"avatar_url"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// RoleGrant is inserted or deleted, never updated in place.
type RoleGrant struct {
	ID          string    `json:"id" db:"id"`
	PrincipalID string    `json:"principal_id" db:"principal_id"`
	Role        Role      `json:"role" db:"role"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}
