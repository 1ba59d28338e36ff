package models

import (
	"time"
)

// Role determines which dashboard an account is routed to after login.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Account is stored in MongoDB in the "accounts" collection.
// Email is the natural key for lookup and is unique across accounts.
// PasswordHash is an Argon2id hash; the plaintext credential is never stored.
type Account struct {
	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email" json:"email"`
	Phone  string `bson:"phone,omitempty" json:"phone,omitempty"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role   Role   `bson:"role" json:"role"`

	PasswordHash string `bson:"password_hash" json:"-"`

	// Verification state. PendingCode holds the newest one-time code and is
	// cleared once verification succeeds.
	IsVerified  bool   `bson:"is_verified" json:"is_verified"`
	PendingCode string `bson:"pending_code,omitempty" json:"-"`
}

// IsAdmin reports whether the account carries the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Public returns the fields safe to hand to the presentation layer.
func (a *Account) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":          a.ID,
		"name":        a.Name,
		"email":       a.Email,
		"phone":       a.Phone,
		"avatar":      a.Avatar,
		"role":        a.Role,
		"is_verified": a.IsVerified,
		"created_at":  a.CreatedAt,
	}
}
