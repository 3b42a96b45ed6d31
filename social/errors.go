package social

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound  = "social_provider_not_found"
	TextCodeInvalidState      = "social_invalid_state"
	TextCodeStateExpired      = "social_state_expired"
	TextCodeTokenExchangeFail = "social_token_exchange_failed"
	TextCodeUserInfoFail      = "social_user_info_failed"
	TextCodeTakeoverRejected  = "social_takeover_rejected"
	TextCodeLinkFailed        = "social_link_failed"
	TextCodeMissingEmail      = "social_missing_email"
	TextCodeLastAuthMethod    = "social_last_auth_method"
)

// ErrProviderNotFound is returned when a requested provider is not configured.
var ErrProviderNotFound = errors.New("social provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidState is returned when the OAuth state is invalid or tampered.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the OAuth state has expired.
var ErrStateExpired = errors.New("oauth state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrTokenExchangeFailed is returned when a provider token exchange fails.
var ErrTokenExchangeFailed = errors.New("token exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(errors.CodeUnauthorized)

// ErrUserInfoFailed is returned when fetching user info fails.
var ErrUserInfoFailed = errors.New("failed to fetch user info", errors.CategoryAuth).
	WithTextCode(TextCodeUserInfoFail).
	WithCode(errors.CodeUnauthorized)

// ErrAccountTakeover is returned when an OAuth profile targets an existing
// account whose email was never verified. The message is deliberately the
// same generic sign-in failure the client would see for any rejection; the
// attempted email is recorded server side only.
var ErrAccountTakeover = errors.New("sign-in could not be completed", errors.CategoryAuth).
	WithTextCode(TextCodeTakeoverRejected).
	WithCode(errors.CodeUnauthorized)

// ErrLinkFailed is returned when persisting the account link fails. Linking
// fails closed: a partial create or attach always rejects the sign-in.
var ErrLinkFailed = errors.New("failed to link social account", errors.CategoryOperation).
	WithTextCode(TextCodeLinkFailed).
	WithCode(errors.CodeInternal)

// ErrLastAuthMethod is returned when unlinking would leave the user with no
// way to sign in.
var ErrLastAuthMethod = errors.New("cannot remove the only sign-in method", errors.CategoryBadInput).
	WithTextCode(TextCodeLastAuthMethod).
	WithCode(errors.CodeBadRequest)

// ErrMissingEmail is returned when the provider profile carries no email.
var ErrMissingEmail = errors.New("social profile has no email", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingEmail).
	WithCode(errors.CodeBadRequest)
