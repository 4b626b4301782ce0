package domain

import (
	"context"
	"time"
)

// SessionIdentity is the opaque anonymous token tying a client to its ratings
type SessionIdentity struct {
	Token string `json:"token"`
}

// IsZero reports whether no token is set
func (s SessionIdentity) IsZero() bool {
	return s.Token == ""
}

// SameSite values for stored cookies
const (
	SameSiteLax    = "Lax"
	SameSiteStrict = "Strict"
	SameSiteNone   = "None"
)

// Cookie is a durable client-side value with browser cookie attributes
type Cookie struct {
	Name      string    `json:"name" gorm:"primaryKey"`
	Path      string    `json:"path" gorm:"primaryKey;default:/"`
	Value     string    `json:"value" gorm:"not null"`
	Secure    bool      `json:"secure"`
	SameSite  string    `json:"same_site"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Cookie) TableName() string {
	return "cookies"
}

// Expired checks the cookie against the store's expiry policy
func (c *Cookie) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// IdentityStore is the durable client-side store holding the session cookie
type IdentityStore interface {
	// Get returns the live cookie with the given name and path, or nil
	Get(ctx context.Context, name, path string) (*Cookie, error)

	// SetIfAbsent stores the cookie unless a live one already exists and
	// returns whichever cookie is stored afterwards
	SetIfAbsent(ctx context.Context, cookie *Cookie) (*Cookie, error)
}
