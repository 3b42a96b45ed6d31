package social

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	auth "github.com/alertline/go-auth"
	"github.com/goliatone/go-repository-bun"
)

// LinkOutcome names the decision the guard reached for a sign-in.
type LinkOutcome string

const (
	// OutcomeRejectTakeover blocks the sign-in: the email belongs to an
	// account that never verified it.
	OutcomeRejectTakeover LinkOutcome = "reject_takeover"
	// OutcomeCreateIdentity creates a fresh verified account for the profile.
	OutcomeCreateIdentity LinkOutcome = "create_identity"
	// OutcomeAttachExisting attaches the credential to a verified account.
	OutcomeAttachExisting LinkOutcome = "attach_existing"
)

// LinkingResult contains the resolved user and how the guard got there.
type LinkingResult struct {
	User      *auth.User
	Outcome   LinkOutcome
	IsNewUser bool
	Linked    bool
}

// LinkingGuard decides how an OAuth profile maps onto local accounts.
//
// The decision sequence is the account-takeover defense: an existing account
// whose email was never verified is never silently annexed by whoever
// controls that email at the provider. Any repository error rejects the
// whole sign-in, never a partial link.
type LinkingGuard struct {
	accountRepo SocialAccountRepository
	userRepo    auth.Users
	logger      auth.Logger
}

// NewLinkingGuard builds a guard over the two repositories it arbitrates.
func NewLinkingGuard(accountRepo SocialAccountRepository, userRepo auth.Users) *LinkingGuard {
	return &LinkingGuard{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		logger:      auth.NewDefaultLogger(),
	}
}

func (g *LinkingGuard) WithLogger(logger auth.Logger) *LinkingGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// EvaluateLink runs the linking decision for an incoming profile:
//
//  1. A credential already stored for (provider, providerAccountID) resolves
//     straight to its user; attaching twice never creates a second row.
//  2. An existing user with the same email and a null verification timestamp
//     rejects the sign-in.
//  3. No user creates a fresh one: tier FREE, role USER, no password, email
//     verified now. A concurrent create losing the unique email race retries
//     as an attach.
//  4. A verified user gets the credential attached, and the profile image is
//     backfilled only when the account has none.
func (g *LinkingGuard) EvaluateLink(ctx context.Context, profile *SocialProfile) (*LinkingResult, error) {
	if profile == nil {
		return nil, ErrUserInfoFailed
	}
	if g.accountRepo == nil || g.userRepo == nil {
		return nil, ErrLinkFailed
	}

	email := auth.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	existing, err := g.accountRepo.FindByProviderAccount(ctx, profile.Provider, profile.ProviderAccountID)
	if err != nil && !isNotFound(err) {
		return nil, linkFailure("lookup credential", err)
	}

	if existing != nil {
		user, err := g.userRepo.GetByIdentifier(ctx, existing.UserID)
		if err != nil {
			return nil, linkFailure("resolve linked user", err)
		}

		if err := g.backfillImage(ctx, user, profile); err != nil {
			return nil, err
		}

		return &LinkingResult{User: user, Outcome: OutcomeAttachExisting}, nil
	}

	user, err := g.userRepo.GetByEmail(ctx, email)
	if err != nil && !isNotFound(err) {
		return nil, linkFailure("lookup user by email", err)
	}

	if user != nil && err == nil {
		if !user.IsEmailVerified() {
			g.logger.Warn("social sign-in rejected: existing account is unverified", "email", email)
			return nil, takeoverRejection(email, profile.Provider)
		}
		return g.attach(ctx, user, profile)
	}

	return g.create(ctx, email, profile)
}

func (g *LinkingGuard) create(ctx context.Context, email string, profile *SocialProfile) (*LinkingResult, error) {
	now := time.Now()
	record := &auth.User{
		Email:           email,
		Name:            profile.Name,
		ProfilePicture:  profile.AvatarURL,
		EmailVerifiedAt: &now,
		Tier:            auth.TierFree,
		Role:            auth.RoleUser,
	}

	created, err := g.userRepo.Create(ctx, record)
	if err != nil {
		if !isUniqueViolation(err) {
			return nil, linkFailure("create user", err)
		}

		// A concurrent sign-in for the same new email won the insert.
		// The unique constraint turns the race into an attach, with the
		// takeover check re-run against the winner's record.
		winner, lookupErr := g.userRepo.GetByEmail(ctx, email)
		if lookupErr != nil {
			return nil, linkFailure("resolve conflicting user", lookupErr)
		}

		if !winner.IsEmailVerified() {
			g.logger.Warn("social sign-in rejected: existing account is unverified", "email", email)
			return nil, takeoverRejection(email, profile.Provider)
		}

		return g.attach(ctx, winner, profile)
	}

	if err := g.upsertCredential(ctx, created, profile); err != nil {
		return nil, err
	}

	return &LinkingResult{
		User:      created,
		Outcome:   OutcomeCreateIdentity,
		IsNewUser: true,
		Linked:    true,
	}, nil
}

func (g *LinkingGuard) attach(ctx context.Context, user *auth.User, profile *SocialProfile) (*LinkingResult, error) {
	if err := g.upsertCredential(ctx, user, profile); err != nil {
		return nil, err
	}

	if err := g.backfillImage(ctx, user, profile); err != nil {
		return nil, err
	}

	return &LinkingResult{
		User:    user,
		Outcome: OutcomeAttachExisting,
		Linked:  true,
	}, nil
}

func (g *LinkingGuard) upsertCredential(ctx context.Context, user *auth.User, profile *SocialProfile) error {
	account := &SocialAccount{
		UserID:            user.ID.String(),
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
		Email:             auth.NormalizeEmail(profile.Email),
		Name:              profile.Name,
		AvatarURL:         profile.AvatarURL,
		ProfileData:       profile.Raw,
	}

	if err := g.accountRepo.Upsert(ctx, account); err != nil {
		return linkFailure("persist credential", err)
	}

	return nil
}

func (g *LinkingGuard) backfillImage(ctx context.Context, user *auth.User, profile *SocialProfile) error {
	if profile.AvatarURL == "" || user.ProfilePicture != "" {
		return nil
	}

	if err := g.userRepo.BackfillProfilePicture(ctx, user.ID, profile.AvatarURL); err != nil {
		return linkFailure("backfill profile picture", err)
	}

	user.ProfilePicture = profile.AvatarURL
	return nil
}

func takeoverRejection(email, provider string) error {
	clone := ErrAccountTakeover.Clone()
	if clone == nil {
		return ErrAccountTakeover
	}
	clone.Source = ErrAccountTakeover
	return clone.WithMetadata(map[string]any{
		"email":    email,
		"provider": provider,
	})
}

func linkFailure(stage string, err error) error {
	clone := ErrLinkFailed.Clone()
	if clone == nil {
		return ErrLinkFailed
	}
	// keep both the sentinel and the cause reachable through errors.Is
	clone.Source = errors.Join(ErrLinkFailed, err)
	return clone.WithMetadata(map[string]any{
		"stage": stage,
	})
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return repository.IsRecordNotFound(err) || err == sql.ErrNoRows
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed: users.email")
}

var _ auth.SocialAccountLinker = (*Linker)(nil)

// Linker adapts the guard to the authenticator's SocialAccountLinker.
type Linker struct {
	Guard *LinkingGuard
}

// Link satisfies auth.SocialAccountLinker.
func (l Linker) Link(ctx context.Context, profile auth.SocialProfile) (auth.Identity, bool, error) {
	if l.Guard == nil {
		return nil, false, ErrLinkFailed
	}

	result, err := l.Guard.EvaluateLink(ctx, &SocialProfile{
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
		Email:             profile.Email,
		EmailVerified:     true,
		Name:              profile.Name,
		AvatarURL:         profile.Image,
		Raw:               profile.Metadata,
	})
	if err != nil {
		return nil, false, err
	}

	identity := auth.NewIdentityFromUser(result.User)
	if identity == nil {
		return nil, false, auth.ErrIdentityNotFound
	}

	return identity, result.IsNewUser, nil
}
