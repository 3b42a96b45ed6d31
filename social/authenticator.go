package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	auth "github.com/alertline/go-auth"
)

// SocialAuthenticator orchestrates the OAuth sign-in flow end to end:
// redirect, state verification, token exchange, account linking, and
// session token minting.
type SocialAuthenticator struct {
	providers    map[string]SocialProvider
	stateManager StateManager
	guard        *LinkingGuard
	accountRepo  SocialAccountRepository
	userRepo     auth.Users
	tokenService auth.TokenService
	activitySink auth.ActivitySink
	logger       auth.Logger
	config       SocialAuthConfig
}

// SocialAuthConfig configures the social authenticator.
type SocialAuthConfig struct {
	BaseURL            string
	CallbackPath       string
	DefaultRedirectURL string
	StateEncryptionKey []byte
	StateHMACKey       []byte
	StateTTL           time.Duration
}

// SocialAuthOption configures the social authenticator.
type SocialAuthOption func(*SocialAuthenticator)

// NewSocialAuthenticator creates a new social authenticator.
func NewSocialAuthenticator(
	accountRepo SocialAccountRepository,
	userRepo auth.Users,
	tokenService auth.TokenService,
	config SocialAuthConfig,
	opts ...SocialAuthOption,
) *SocialAuthenticator {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	sa := &SocialAuthenticator{
		providers:    make(map[string]SocialProvider),
		accountRepo:  accountRepo,
		userRepo:     userRepo,
		tokenService: tokenService,
		logger:       auth.NewDefaultLogger(),
		config:       cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	if sa.stateManager == nil {
		sa.stateManager = NewEncryptedStateManager(
			cfg.StateEncryptionKey,
			cfg.StateHMACKey,
			cfg.StateTTL,
		)
	}

	if sa.guard == nil {
		sa.guard = NewLinkingGuard(accountRepo, userRepo).WithLogger(sa.logger)
	}

	return sa
}

// WithProvider registers a social provider.
func WithProvider(provider SocialProvider) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		if provider == nil {
			return
		}
		sa.providers[provider.Name()] = provider
	}
}

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.stateManager = sm
	}
}

// WithLinkingGuard sets a custom linking guard.
func WithLinkingGuard(guard *LinkingGuard) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.guard = guard
	}
}

// WithActivitySink sets the activity sink for audit logging.
func WithActivitySink(sink auth.ActivitySink) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.activitySink = sink
	}
}

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		if logger != nil {
			sa.logger = logger
		}
	}
}

// Guard exposes the linking guard, mainly so callers can wire it into the
// credential authenticator as its SocialAccountLinker.
func (sa *SocialAuthenticator) Guard() *LinkingGuard {
	return sa.guard
}

// BeginAuth starts the OAuth flow for a provider.
func (sa *SocialAuthenticator) BeginAuth(
	ctx context.Context,
	providerName string,
	opts ...BeginAuthOption,
) (*AuthRedirect, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	if sa.stateManager == nil {
		return nil, ErrInvalidState
	}

	cfg := &beginAuthConfig{
		redirectURL: sa.config.DefaultRedirectURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	codeChallenge := computeCodeChallenge(codeVerifier)

	state := &OAuthState{
		Nonce:        generateNonce(),
		Provider:     providerName,
		CodeVerifier: codeVerifier,
		RedirectURL:  cfg.redirectURL,
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    time.Now().Add(sa.config.StateTTL).Unix(),
	}

	stateToken, err := sa.stateManager.Encode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	authURL := provider.AuthCodeURL(stateToken, WithPKCE(codeChallenge, "S256"))

	return &AuthRedirect{
		URL:      authURL,
		State:    stateToken,
		Provider: providerName,
	}, nil
}

// CompleteAuth finishes the OAuth flow after callback.
func (sa *SocialAuthenticator) CompleteAuth(
	ctx context.Context,
	providerName string,
	code string,
	stateToken string,
) (*AuthResult, error) {
	if sa.stateManager == nil {
		return nil, ErrInvalidState
	}

	state, err := sa.stateManager.Decode(stateToken)
	if err != nil {
		if errors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if state.Provider != providerName {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	if time.Now().Unix() > state.ExpiresAt {
		return nil, ErrStateExpired
	}

	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	token, err := provider.Exchange(ctx, code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		return nil, wrapProviderError(ErrTokenExchangeFailed, providerName, "exchange", err)
	}

	profile, err := provider.UserInfo(ctx, token)
	if err != nil {
		return nil, wrapProviderError(ErrUserInfoFailed, providerName, "user_info", err)
	}

	if sa.guard == nil {
		return nil, ErrLinkFailed
	}

	result, err := sa.guard.EvaluateLink(ctx, profile)
	if err != nil {
		if errors.Is(err, ErrAccountTakeover) {
			sa.recordEvent(ctx, auth.ActivityEventTakeoverRejected, "", map[string]any{
				"provider": providerName,
				"email":    auth.NormalizeEmail(profile.Email),
			})
		}
		return nil, err
	}
	if result == nil || result.User == nil {
		return nil, auth.ErrIdentityNotFound
	}

	if !result.User.IsActive {
		return nil, auth.ErrAccountInactive
	}

	if err := sa.storeCredentialTokens(ctx, result.User, profile, token); err != nil {
		return nil, err
	}

	identity := auth.NewIdentityFromUser(result.User)
	if identity == nil {
		return nil, auth.ErrIdentityNotFound
	}

	jwtToken, err := sa.tokenService.Generate(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	eventType := auth.ActivityEventSocialLogin
	if result.IsNewUser {
		eventType = auth.ActivityEventSocialSignup
	}

	sa.recordEvent(ctx, eventType, identity.ID(), map[string]any{
		"provider":            providerName,
		"provider_account_id": profile.ProviderAccountID,
		"is_new_user":         result.IsNewUser,
	})

	return &AuthResult{
		User:        identity,
		Token:       jwtToken,
		IsNewUser:   result.IsNewUser,
		Provider:    providerName,
		Profile:     profile,
		RedirectURL: state.RedirectURL,
	}, nil
}

// storeCredentialTokens persists the OAuth token material alongside the
// linked credential. The upsert is keyed on (provider, provider_account_id)
// so it never duplicates a link.
func (sa *SocialAuthenticator) storeCredentialTokens(ctx context.Context, user *auth.User, profile *SocialProfile, token *Token) error {
	if sa.accountRepo == nil {
		return ErrLinkFailed
	}

	account := &SocialAccount{
		UserID:            user.ID.String(),
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
		Email:             auth.NormalizeEmail(profile.Email),
		Name:              profile.Name,
		AvatarURL:         profile.AvatarURL,
	}

	if token != nil {
		account.AccessToken = token.AccessToken
		account.RefreshToken = token.RefreshToken
		account.IDToken = token.IDToken
		account.ProfileData = profile.Raw
		if !token.ExpiresAt.IsZero() {
			expiresAt := token.ExpiresAt
			account.TokenExpiresAt = &expiresAt
		}
	}

	if err := sa.accountRepo.Upsert(ctx, account); err != nil {
		return linkFailure("persist credential tokens", err)
	}

	return nil
}

func (sa *SocialAuthenticator) recordEvent(ctx context.Context, eventType auth.ActivityEventType, userID string, metadata map[string]any) {
	if sa.activitySink == nil {
		return
	}

	err := sa.activitySink.Record(ctx, auth.ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Actor:      auth.ActorRef{Type: "social"},
		OccurredAt: time.Now(),
		Metadata:   metadata,
	})
	if err != nil {
		sa.logger.Warn("activity sink record error: %v", err)
	}
}

// ListProviders returns all registered providers.
func (sa *SocialAuthenticator) ListProviders() []ProviderInfo {
	var providers []ProviderInfo
	for name, p := range sa.providers {
		providers = append(providers, ProviderInfo{
			Name:    name,
			AuthURL: p.AuthCodeURL(""),
		})
	}
	return providers
}

// ProviderInfo describes an available provider.
type ProviderInfo struct {
	Name    string
	AuthURL string
}

// AuthRedirect contains the authorization URL for redirecting users.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// AuthResult contains the result of a successful authentication.
type AuthResult struct {
	User        auth.Identity
	Token       string
	IsNewUser   bool
	Provider    string
	Profile     *SocialProfile
	RedirectURL string
}

// BeginAuthOption configures the auth initiation.
type BeginAuthOption func(*beginAuthConfig)

type beginAuthConfig struct {
	redirectURL string
}

// WithRedirectURL sets the post-auth redirect URL.
func WithRedirectURL(url string) BeginAuthOption {
	return func(c *beginAuthConfig) {
		c.redirectURL = url
	}
}
