package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Stable text codes surfaced to API clients. Keep these in sync with any
// client that branches on authentication failures.
const (
	TextCodeInvalidCreds       = "AUTH_INVALID_CREDENTIALS"
	TextCodeTooManyAttempts    = "AUTH_TOO_MANY_ATTEMPTS"
	TextCodeAccountInactive    = "AUTH_ACCOUNT_INACTIVE"
	TextCodeUnauthorized       = "AUTH_UNAUTHORIZED"
	TextCodeInsufficientRole   = "AUTH_INSUFFICIENT_ROLE"
	TextCodeAdminRequired      = "AUTH_ADMIN_REQUIRED"
	TextCodeAffiliateRequired  = "AUTH_AFFILIATE_REQUIRED"
	TextCodeTierUpgrade        = "AUTH_TIER_UPGRADE_REQUIRED"
	TextCodeFeatureForbidden   = "AUTH_FEATURE_FORBIDDEN"
	TextCodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "AUTH_TOKEN_MALFORMED"
	TextCodeSessionNotFound    = "AUTH_SESSION_NOT_FOUND"
	TextCodeSessionDecodeError = "AUTH_SESSION_DECODE_ERROR"
	TextCodeClaimsMappingError = "AUTH_CLAIMS_MAPPING_ERROR"
	TextCodeDataParseError     = "AUTH_DATA_PARSE_ERROR"
	TextCodeEmptyPassword      = "AUTH_EMPTY_PASSWORD"
)

// ErrIdentityNotFound is returned for identities we could not locate.
// It is internal: credential flows must surface ErrMismatchedHashAndPassword
// instead so callers cannot enumerate accounts.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is the single failure for every bad credential
// path: unknown email, OAuth-only account with no password, or wrong password.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned once the failed-attempt cooldown trips.
var ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrAccountInactive is returned when the account exists but was deactivated.
var ErrAccountInactive = errors.New("account is inactive", errors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(errors.CodeForbidden)

// ErrUnauthorized is returned when a request carries no usable session.
var ErrUnauthorized = errors.New("you must be signed in to access this resource", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrInsufficientRole is returned when the session role does not satisfy the
// role requirement of the guarded resource.
var ErrInsufficientRole = errors.New("your role does not grant access to this resource", errors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(errors.CodeForbidden)

// ErrAdminRequired is returned when a non-admin session hits an admin gate.
var ErrAdminRequired = errors.New("administrator access required", errors.CategoryAuthz).
	WithTextCode(TextCodeAdminRequired).
	WithCode(errors.CodeForbidden)

// ErrAffiliateRequired is returned when a non-affiliate session hits an
// affiliate gate.
var ErrAffiliateRequired = errors.New("affiliate access required", errors.CategoryAuthz).
	WithTextCode(TextCodeAffiliateRequired).
	WithCode(errors.CodeForbidden)

// ErrTierUpgradeRequired is returned when a feature is gated behind a higher
// subscription tier. Tier gating is a conversion surface, so the message is
// specific and actionable rather than generic.
var ErrTierUpgradeRequired = errors.New("PRO tier subscription required for this feature", errors.CategoryAuthz).
	WithTextCode(TextCodeTierUpgrade).
	WithCode(errors.CodeForbidden)

// ErrFeatureForbidden is the generic denial for feature checks that fail
// without a more specific role/tier/affiliate requirement.
var ErrFeatureForbidden = errors.New("you do not have permission to access this feature", errors.CategoryAuthz).
	WithTextCode(TextCodeFeatureForbidden).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired is returned when a session token is past its expiry.
var ErrTokenExpired = errors.New("session token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature
// verification.
var ErrTokenMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession is the error when the request has no session cookie.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token.
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithTextCode(TextCodeClaimsMappingError).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToParseData parse error.
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString is returned when an empty password reaches the hasher.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
