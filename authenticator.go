package auth

import (
	"context"
	"reflect"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SocialProfile is the normalized identity a social provider asserts after a
// successful OAuth exchange.
type SocialProfile struct {
	Provider          string         `json:"provider"`
	ProviderAccountID string         `json:"provider_account_id"`
	Email             string         `json:"email"`
	Name              string         `json:"name,omitempty"`
	Image             string         `json:"image,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// SocialAccountLinker decides how an incoming social profile maps onto a
// local account: attach, create, or reject.
type SocialAccountLinker interface {
	Link(ctx context.Context, profile SocialProfile) (Identity, bool, error)
}

type Auther struct {
	provider        IdentityProvider
	socialLinker    SocialAccountLinker
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
	activitySink    ActivitySink
	claimsDecorator ClaimsDecorator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	// Initialize TokenService with configuration from opts
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		jwt.ClaimStrings(opts.GetAudience()),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
		activitySink:    noopActivitySink{},
		claimsDecorator: noopClaimsDecorator{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	// Update the TokenService logger as well
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		jwt.ClaimStrings(s.audience),
		logger,
	)
	return s
}

// WithSocialLinker wires the account-linking policy used by SocialLogin.
func (s *Auther) WithSocialLinker(linker SocialAccountLinker) *Auther {
	s.socialLinker = linker
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching JWTs.
func (s *Auther) WithClaimsDecorator(decorator ClaimsDecorator) *Auther {
	s.claimsDecorator = normalizeClaimsDecorator(decorator)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, identifier, password); err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": NormalizeEmail(identifier),
			"error":      err.Error(),
		})
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": NormalizeEmail(identifier),
			"error":      ErrIdentityNotFound.Error(),
		})
		return "", ErrIdentityNotFound
	}

	token, err := s.generateJWT(ctx, identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": NormalizeEmail(identifier),
			"error":      err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": NormalizeEmail(identifier),
	})

	return token, nil
}

// SocialLogin resolves an OAuth profile through the configured linker and
// mints a session token for the resulting account. The linker decides whether
// the profile attaches to an existing account, creates a fresh one, or gets
// rejected as a takeover attempt.
func (s *Auther) SocialLogin(ctx context.Context, profile SocialProfile) (string, error) {
	if s.socialLinker == nil {
		s.logger.Error("SocialLogin called without a social linker")
		return "", ErrUnableToFindSession
	}

	identity, created, err := s.socialLinker.Link(ctx, profile)
	if err != nil {
		s.logger.Warn("SocialLogin link rejected", "provider", profile.Provider, "error", err)
		s.emitAuthEvent(ctx, ActivityEventTakeoverRejected, ActorRef{Type: "unknown"}, "", map[string]any{
			"provider":   profile.Provider,
			"identifier": NormalizeEmail(profile.Email),
			"error":      err.Error(),
		})
		return "", err
	}

	token, err := s.generateJWT(ctx, identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"provider":   profile.Provider,
			"identifier": NormalizeEmail(profile.Email),
			"error":      err.Error(),
		})
		return "", err
	}

	eventType := ActivityEventSocialLogin
	if created {
		eventType = ActivityEventSocialSignup
	}

	s.emitAuthEvent(ctx, eventType, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"provider":   profile.Provider,
		"identifier": NormalizeEmail(profile.Email),
	})

	return token, nil
}

// Refresh re-signs a live token, optionally applying a tier update from an
// external trigger such as billing. The tier claim is the only claim a
// refresh may rewrite; issuance, expiry, and the rest of the claim set are
// carried over untouched so a refresh never extends a session's lifetime.
// On an internal failure the previous token is returned unmodified so a
// transient fault cannot lock the user out of a still-valid session.
func (s *Auther) Refresh(ctx context.Context, rawToken string, update SessionUpdate) (string, error) {
	claims, err := s.tokenService.Validate(rawToken)
	if err != nil {
		s.logger.Error("Refresh validation failed", "error", err)
		return "", err
	}

	jwtClaims, ok := claims.(*JWTClaims)
	if !ok {
		return "", ErrUnableToMapClaims
	}

	if !update.HasChanges() {
		return rawToken, nil
	}

	tier, valid := ParseTier(string(update.Tier))
	if !valid {
		s.logger.Warn("Refresh ignoring unknown tier", "tier", update.Tier)
		return rawToken, nil
	}

	next := *jwtClaims
	next.UserTier = tier

	token, err := s.tokenService.SignClaims(&next)
	if err != nil {
		s.logger.Error("Refresh failed to sign updated claims", "error", err)
		return rawToken, nil
	}

	s.emitAuthEvent(ctx, ActivityEventTierUpdated, ActorRef{ID: jwtClaims.UserID(), Type: "user"}, jwtClaims.UserID(), map[string]any{
		"tier":          tier,
		"previous_tier": jwtClaims.UserTier,
	})

	return token, nil
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())

	if err != nil {
		s.logger.Error("IdentityFromSession findidentity by identifier: %s", err)
		return nil, err
	}

	return identity, nil
}

// Impersonate mints a token for the given account without checking a
// password. Callers are responsible for gating this behind an admin session.
func (s *Auther) Impersonate(ctx context.Context, identifier string) (string, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.FindIdentityByIdentifier(ctx, identifier); err != nil {
		s.logger.Error("Impersonate verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventImpersonationFailure, ActorRef{Type: "system"}, "", map[string]any{
			"identifier": NormalizeEmail(identifier),
			"error":      err.Error(),
		})
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Impersonate identity is nil")
		s.emitAuthEvent(ctx, ActivityEventImpersonationFailure, ActorRef{Type: "system"}, "", map[string]any{
			"identifier": NormalizeEmail(identifier),
			"error":      ErrIdentityNotFound.Error(),
		})
		return "", ErrIdentityNotFound
	}

	token, err := s.generateJWT(ctx, identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventImpersonationFailure, ActorRef{Type: "system"}, identity.ID(), map[string]any{
			"identifier": NormalizeEmail(identifier),
			"error":      err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventImpersonationSuccess, ActorRef{Type: "system"}, identity.ID(), map[string]any{
		"identifier": NormalizeEmail(identifier),
	})

	return token, nil
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	// Convert AuthClaims to SessionObject
	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// generateJWT generates a JWT token using structured claims
func (s *Auther) generateJWT(ctx context.Context, identity Identity) (string, error) {
	claims := s.newJWTClaims(identity)
	snapshot := captureImmutableClaims(claims)

	decorator := normalizeClaimsDecorator(s.claimsDecorator)
	if err := decorator.Decorate(ctx, identity, claims); err != nil {
		s.logger.Error("claims decorator failed", "error", err)
		return "", err
	}

	if err := snapshot.validate(claims); err != nil {
		s.logger.Error("claims decorator mutated immutable claims", "error", err)
		return "", err
	}

	return s.tokenService.SignClaims(claims)
}

func (s *Auther) newJWTClaims(identity Identity) *JWTClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(s.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(s.audience))
		copy(aud, s.audience)
	}

	expiration := s.tokenExpiration
	if expiration <= 0 {
		expiration = DefaultTokenExpirationHours
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiration) * time.Hour)),
		},
		UID:       identity.ID(),
		UserTier:  identity.Tier(),
		UserRole:  identity.Role(),
		Affiliate: identity.IsAffiliate(),
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}

var _ Authenticator = &Auther{}
