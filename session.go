package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Tier           Tier           `json:"tier,omitempty"`
	Role           UserRole       `json:"role,omitempty"`
	Affiliate      bool           `json:"is_affiliate,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetTier() Tier {
	if !IsValidTier(s.Tier) {
		return TierFree
	}
	return s.Tier
}

func (s *SessionObject) GetRole() UserRole {
	if !IsValidRole(s.Role) {
		return RoleUser
	}
	return s.Role
}

func (s *SessionObject) GetIsAffiliate() bool {
	return s.Affiliate
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiration() *time.Time {
	return s.ExpirationDate
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// IsAdmin reports whether the session carries the administrator role.
func (s *SessionObject) IsAdmin() bool {
	return IsAdminRole(s.GetRole())
}

// HasTier reports whether the session tier satisfies the minimum tier.
func (s *SessionObject) HasTier(min Tier) bool {
	return TierAtLeast(s.GetTier(), min)
}

// TODO: enable only in development!
func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s tier=%s role=%s aud=%v iss=%s iat=%s",
		s.UserID,
		s.Tier,
		s.Role,
		s.Audience,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from AuthClaims.
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	data := make(map[string]any)
	data["tier"] = string(claims.Tier())
	data["role"] = string(claims.Role())

	var audience []string
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if len(jwtClaims.Metadata) > 0 {
			data["metadata"] = jwtClaims.Metadata
		}

		if jwtClaims.RegisteredClaims.Audience != nil {
			audience = append(audience, jwtClaims.RegisteredClaims.Audience...)
		}
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		UserID:         claims.UserID(),
		Tier:           claims.Tier(),
		Role:           claims.Role(),
		Affiliate:      claims.IsAffiliate(),
		Audience:       audience,
		Issuer:         getIssuerFromClaims(claims),
		Data:           data,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}

// sessionFromTokenClaims builds a SessionObject from raw middleware claims.
// The JWT middleware stores parsed tokens as jwt.MapClaims, not JWTClaims.
func sessionFromTokenClaims(claims jwt.Claims) (*SessionObject, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrUnableToParseData
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return nil, ErrUnableToParseData
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, ErrUnableToParseData
	}

	eat, err := claims.GetExpirationTime()
	if err != nil || eat == nil {
		return nil, ErrUnableToParseData
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, ErrUnableToParseData
	}

	mp, ok := claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnableToMapClaims
	}

	rawTier, _ := mp["tier"].(string)
	tier, _ := ParseTier(rawTier)

	rawRole, _ := mp["role"].(string)
	role, _ := ParseRole(rawRole)

	affiliate, _ := mp["isAffiliate"].(bool)

	data := map[string]any{
		"tier": string(tier),
		"role": string(role),
	}
	if meta, ok := mp["metadata"].(map[string]any); ok && len(meta) > 0 {
		data["metadata"] = meta
	}

	return &SessionObject{
		UserID:         sub,
		Tier:           tier,
		Role:           role,
		Affiliate:      affiliate,
		Audience:       aud,
		Issuer:         iss,
		Data:           data,
		IssuedAt:       &iat.Time,
		ExpirationDate: &eat.Time,
	}, nil
}

// getIssuerFromClaims extracts the issuer from AuthClaims.
func getIssuerFromClaims(claims AuthClaims) string {
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if jwtClaims.RegisteredClaims.Issuer != "" {
			return jwtClaims.RegisteredClaims.Issuer
		}
	}
	return claims.Subject()
}
