package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	auth "github.com/alertline/go-auth"
	"github.com/alertline/go-auth/social"
	"github.com/uptrace/bun"
)

// Manager bundles the user and social account repositories behind a single
// transaction boundary. It satisfies auth.RepositoryManager and adds the
// social account store the linking guard needs.
type Manager struct {
	db             *bun.DB
	users          auth.Users
	socialAccounts *SocialAccountRepository
}

var _ auth.RepositoryManager = (*Manager)(nil)

func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:             db,
		users:          auth.NewUsersRepository(db),
		socialAccounts: NewSocialAccountRepository(db),
	}
}

func (m *Manager) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.socialAccounts == nil {
		return errors.New("repository socialAccounts should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *Manager) Users() auth.Users {
	return m.users
}

func (m *Manager) SocialAccounts() social.SocialAccountRepository {
	return m.socialAccounts
}
