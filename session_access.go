package auth

import (
	"context"
	"time"
)

// CurrentSession returns the session stored in the context, or nil when the
// context carries no session, an expired session, or anything unreadable.
// Callers that want an error instead should use RequireSession.
func CurrentSession(ctx context.Context) Session {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}

	if session.GetUserID() == "" {
		return nil
	}

	if exp := session.GetExpiration(); exp != nil && exp.Before(time.Now()) {
		return nil
	}

	return session
}

// RequireSession returns the session in the context or ErrUnauthorized.
func RequireSession(ctx context.Context) (Session, error) {
	session := CurrentSession(ctx)
	if session == nil {
		return nil, ErrUnauthorized
	}
	return session, nil
}

// RequireRole returns the session only when its role satisfies min.
func RequireRole(ctx context.Context, min UserRole) (Session, error) {
	session, err := RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	if !RoleAtLeast(session.GetRole(), min) {
		return nil, ErrInsufficientRole
	}

	return session, nil
}

// RequireAdmin returns the session only for administrator sessions.
func RequireAdmin(ctx context.Context) (Session, error) {
	session, err := RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	if !IsAdminRole(session.GetRole()) {
		return nil, ErrAdminRequired
	}

	return session, nil
}

// RequireAffiliate returns the session only when the affiliate flag is set.
// Administrators pass regardless of the flag.
func RequireAffiliate(ctx context.Context) (Session, error) {
	session, err := RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	if IsAdminRole(session.GetRole()) {
		return session, nil
	}

	if !session.GetIsAffiliate() {
		return nil, ErrAffiliateRequired
	}

	return session, nil
}

// RequireTier returns the session only when its tier satisfies min.
// Administrators pass regardless of tier.
func RequireTier(ctx context.Context, min Tier) (Session, error) {
	session, err := RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	if IsAdminRole(session.GetRole()) {
		return session, nil
	}

	if !TierAtLeast(session.GetTier(), min) {
		return nil, ErrTierUpgradeRequired
	}

	return session, nil
}
