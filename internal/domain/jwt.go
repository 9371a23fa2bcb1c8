package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// IronlogClaims represents the JWT claims issued by the auth service
type IronlogClaims struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID string
	Roles  []string
}

// IsAdmin is the capability check guarding catalog mutation.
func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
