package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tier is the user's subscription tier
type Tier = string

const (
	// TierFree is the default tier every account starts on
	TierFree Tier = "FREE"
	// TierPro is the paid tier with full symbol/timeframe access
	TierPro Tier = "PRO"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (tier-gated feature access)
	RoleUser UserRole = "USER"
	// RoleAdmin bypasses every tier and affiliate gate.
	// Never inferred, only explicitly assigned.
	RoleAdmin UserRole = "ADMIN"
)

// User is the durable identity record
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email           string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Name            string         `bun:"name" json:"name,omitempty"`
	PasswordHash    string         `bun:"password_hash" json:"-"`
	ProfilePicture  string         `bun:"profile_picture" json:"profile_picture,omitempty"`
	EmailVerifiedAt *time.Time     `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	Tier            Tier           `bun:"tier,notnull,default:'FREE'" json:"tier,omitempty"`
	Role            UserRole       `bun:"user_role,notnull,default:'USER'" json:"user_role,omitempty"`
	IsAffiliate     bool           `bun:"is_affiliate,default:false" json:"is_affiliate,omitempty"`
	IsActive        bool           `bun:"is_active,default:true" json:"is_active,omitempty"`
	LoginAttempts   int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt  *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt      *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata        map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt       *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasPassword reports whether the account can authenticate with credentials.
// OAuth-only accounts carry no secret at all.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// IsEmailVerified reports whether the account completed email verification.
// OAuth-created accounts are verified at creation time.
func (u *User) IsEmailVerified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// IsValidTier checks the tier against the known set
func IsValidTier(tier Tier) bool {
	switch tier {
	case TierFree, TierPro:
		return true
	default:
		return false
	}
}

// ParseTier safely parses a string into a Tier. Unknown or empty values
// resolve to FREE so a missing claim never grants paid access.
func ParseTier(raw string) (Tier, bool) {
	tier := Tier(strings.ToUpper(strings.TrimSpace(raw)))
	if IsValidTier(tier) {
		return tier, true
	}
	return TierFree, false
}

// TierAtLeast checks if tier meets the minimum required tier
func TierAtLeast(tier, minTier Tier) bool {
	order := map[Tier]int{
		TierFree: 0,
		TierPro:  1,
	}

	current, ok := order[tier]
	if !ok {
		return false
	}

	min, ok := order[minTier]
	if !ok {
		return false
	}

	return current >= min
}

// GetAllTiers returns the known tiers in ascending order
func GetAllTiers() []Tier {
	return []Tier{TierFree, TierPro}
}

// NormalizeEmail lowercases and trims an email. Every lookup keyed on email
// must go through this so "A@x.com " and "a@x.com" hit the same record.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
