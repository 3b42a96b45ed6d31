package social

import (
	"context"
	"time"
)

// SocialAccount is an external credential attached to a local account.
// Uniqueness is keyed on (provider, provider_account_id).
type SocialAccount struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	Provider          string         `json:"provider"`
	ProviderAccountID string         `json:"provider_account_id"`
	Email             string         `json:"email,omitempty"`
	Name              string         `json:"name,omitempty"`
	AvatarURL         string         `json:"avatar_url,omitempty"`
	AccessToken       string         `json:"-"`
	RefreshToken      string         `json:"-"`
	IDToken           string         `json:"-"`
	TokenExpiresAt    *time.Time     `json:"token_expires_at,omitempty"`
	Scope             string         `json:"scope,omitempty"`
	ProfileData       map[string]any `json:"profile_data,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// SocialAccountRepository manages external credential persistence.
type SocialAccountRepository interface {
	FindByProviderAccount(ctx context.Context, provider, providerAccountID string) (*SocialAccount, error)
	FindByUserID(ctx context.Context, userID string) ([]*SocialAccount, error)
	Upsert(ctx context.Context, account *SocialAccount) error
	Delete(ctx context.Context, id string) error
	DeleteByUserAndProvider(ctx context.Context, userID, provider string) error
}
