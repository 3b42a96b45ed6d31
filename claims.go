package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the structured session claim set: identity plus the
// subscription tier, role, and affiliate flag that drive authorization.
type AuthClaims interface {
	Subject() string
	UserID() string
	Tier() Tier
	Role() UserRole
	IsAffiliate() bool
	HasRole(role string) bool
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims.
// Wire layout: sub/uid carry the identity id, tier/role/isAffiliate carry the
// authorization snapshot taken at issuance time.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string         `json:"uid,omitempty"`
	UserTier  Tier           `json:"tier,omitempty"`
	UserRole  UserRole       `json:"role,omitempty"`
	Affiliate bool           `json:"isAffiliate,omitempty"`
	Scopes    []string       `json:"scopes,omitempty"`   // short-lived scoped tokens only
	Metadata  map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Tier returns the subscription tier, defaulting to FREE when the claim is
// missing or unknown so a stripped token never gains paid access.
func (c *JWTClaims) Tier() Tier {
	tier, _ := ParseTier(string(c.UserTier))
	return tier
}

// Role returns the global role, defaulting to USER
func (c *JWTClaims) Role() UserRole {
	role, _ := ParseRole(string(c.UserRole))
	return role
}

// IsAffiliate returns the affiliate capability flag
func (c *JWTClaims) IsAffiliate() bool {
	return c.Affiliate
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return string(c.Role()) == role
}

// IsAdmin reports whether the claims carry the admin bypass
func (c *JWTClaims) IsAdmin() bool {
	return IsAdminRole(c.Role())
}

// HasTier reports whether the claim tier meets the given minimum tier.
// An unrecognized minimum never matches.
func (c *JWTClaims) HasTier(minTier string) bool {
	min, ok := ParseTier(minTier)
	if !ok {
		return false
	}
	return TierAtLeast(c.Tier(), min)
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
