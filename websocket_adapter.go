package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// WSTokenValidator implements go-router's WSTokenValidator interface
// using the TokenService for WebSocket authentication. Live alert and
// price streams authenticate the upgrade request with the same session
// token the HTTP routes use.
type WSTokenValidator struct {
	tokenService TokenService
}

// NewWSTokenValidator creates a new WebSocket token validator using the provided TokenService
func NewWSTokenValidator(tokenService TokenService) *WSTokenValidator {
	return &WSTokenValidator{
		tokenService: tokenService,
	}
}

// Validate validates a token string and returns WebSocket-compatible auth claims
func (w *WSTokenValidator) Validate(tokenString string) (router.WSAuthClaims, error) {
	claims, err := w.tokenService.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &WSAuthClaimsAdapter{claims: claims}, nil
}

// WSAuthClaimsAdapter adapts AuthClaims to go-router's WSAuthClaims interface.
// Streams are read-only for regular users; mutations go through the REST
// surface, so only admin sessions get write capabilities here.
type WSAuthClaimsAdapter struct {
	claims AuthClaims
}

// Subject returns the subject claim
func (w *WSAuthClaimsAdapter) Subject() string {
	return w.claims.Subject()
}

// UserID returns the user ID
func (w *WSAuthClaimsAdapter) UserID() string {
	return w.claims.UserID()
}

// Role returns the user's role
func (w *WSAuthClaimsAdapter) Role() string {
	return string(w.claims.Role())
}

// CanRead reports whether the session may subscribe to a stream resource
func (w *WSAuthClaimsAdapter) CanRead(resource string) bool {
	return true
}

// CanEdit reports whether the session may mutate a stream resource
func (w *WSAuthClaimsAdapter) CanEdit(resource string) bool {
	return w.claims.IsAdmin()
}

// CanCreate reports whether the session may create a stream resource
func (w *WSAuthClaimsAdapter) CanCreate(resource string) bool {
	return w.claims.IsAdmin()
}

// CanDelete reports whether the session may delete a stream resource
func (w *WSAuthClaimsAdapter) CanDelete(resource string) bool {
	return w.claims.IsAdmin()
}

// HasRole checks if the user has a specific role
func (w *WSAuthClaimsAdapter) HasRole(role string) bool {
	return w.claims.HasRole(role)
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (w *WSAuthClaimsAdapter) IsAtLeast(minRole string) bool {
	min, ok := ParseRole(minRole)
	if !ok {
		return false
	}
	return RoleAtLeast(w.claims.Role(), min)
}

// NewWSAuthMiddleware creates a fully configured WebSocket authentication middleware
// using the TokenService.
func (a *Auther) NewWSAuthMiddleware(config ...router.WSAuthConfig) router.WebSocketMiddleware {
	validator := NewWSTokenValidator(a.tokenService)

	var cfg router.WSAuthConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	cfg.TokenValidator = validator

	return router.NewWSAuth(cfg)
}

// WSAuthClaimsFromContext retrieves the auth claims stored by the WebSocket
// middleware, unwrapping the adapter when present.
func WSAuthClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	wsAuthClaims, ok := router.WSAuthClaimsFromContext(ctx)
	if !ok {
		return nil, false
	}

	if adapter, ok := wsAuthClaims.(*WSAuthClaimsAdapter); ok {
		return adapter.claims, true
	}

	return nil, false
}
