package auth

import (
	"fmt"
	"time"
)

type immutableClaimsSnapshot struct {
	subject     string
	issuer      string
	uid         string
	tier        Tier
	role        UserRole
	affiliate   bool
	audience    []string
	issuedAt    time.Time
	hasIssuedAt bool
	expiresAt   time.Time
	hasExpires  bool
}

func captureImmutableClaims(claims *JWTClaims) immutableClaimsSnapshot {
	var audienceCopy []string
	if len(claims.RegisteredClaims.Audience) > 0 {
		audienceCopy = append(audienceCopy, claims.RegisteredClaims.Audience...)
	}

	snap := immutableClaimsSnapshot{
		subject:   claims.RegisteredClaims.Subject,
		issuer:    claims.RegisteredClaims.Issuer,
		uid:       claims.UID,
		tier:      claims.UserTier,
		role:      claims.UserRole,
		affiliate: claims.Affiliate,
		audience:  audienceCopy,
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		snap.issuedAt = claims.RegisteredClaims.IssuedAt.Time
		snap.hasIssuedAt = true
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		snap.expiresAt = claims.RegisteredClaims.ExpiresAt.Time
		snap.hasExpires = true
	}

	return snap
}

func (snap immutableClaimsSnapshot) validate(claims *JWTClaims) error {
	if claims.RegisteredClaims.Subject != snap.subject {
		return immutableClaimViolation("sub")
	}

	if claims.RegisteredClaims.Issuer != snap.issuer {
		return immutableClaimViolation("iss")
	}

	if claims.UID != snap.uid {
		return immutableClaimViolation("uid")
	}

	if claims.UserTier != snap.tier {
		return immutableClaimViolation("tier")
	}

	if claims.UserRole != snap.role {
		return immutableClaimViolation("role")
	}

	if claims.Affiliate != snap.affiliate {
		return immutableClaimViolation("isAffiliate")
	}

	if !audienceEqual(claims.RegisteredClaims.Audience, snap.audience) {
		return immutableClaimViolation("aud")
	}

	hasIssuedAt := claims.RegisteredClaims.IssuedAt != nil
	if hasIssuedAt != snap.hasIssuedAt {
		return immutableClaimViolation("iat")
	}
	if hasIssuedAt && !claims.RegisteredClaims.IssuedAt.Time.Equal(snap.issuedAt) {
		return immutableClaimViolation("iat")
	}

	hasExpires := claims.RegisteredClaims.ExpiresAt != nil
	if hasExpires != snap.hasExpires {
		return immutableClaimViolation("exp")
	}
	if hasExpires && !claims.RegisteredClaims.ExpiresAt.Time.Equal(snap.expiresAt) {
		return immutableClaimViolation("exp")
	}

	return nil
}

func immutableClaimViolation(claim string) error {
	return fmt.Errorf("claims decorator mutated immutable claim %q", claim)
}

func audienceEqual(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
