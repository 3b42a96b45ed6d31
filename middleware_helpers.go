package auth

import (
	"context"

	"github.com/alertline/go-auth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// NewJWTValidatorAdapter adapts a TokenService to the jwtware.TokenValidator
// interface. The concrete claims type satisfies both packages.
func NewJWTValidatorAdapter(ts TokenService) jwtware.TokenValidator {
	return tokenValidatorAdapter{ts: ts}
}

type tokenValidatorAdapter struct {
	ts TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	adapted, ok := claims.(jwtware.AuthClaims)
	if !ok {
		return nil, ErrUnableToMapClaims
	}

	return adapted, nil
}

// ContextEnricherAdapter adapts jwtware.AuthClaims to auth.AuthClaims and
// stores both the claims and the derived session in the standard context so
// the session accessors work downstream.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	ctxWithClaims := WithClaimsContext(c, authClaims)

	session, err := sessionFromAuthClaims(authClaims)
	if err != nil {
		return ctxWithClaims
	}

	return WithSessionContext(ctxWithClaims, session)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
