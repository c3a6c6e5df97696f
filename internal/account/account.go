package account

import (
	"context"
	"errors"
	"time"

	"auth-backend/internal/apperr"
	"auth-backend/internal/store"
)

// Account is the identity record a login resolves to.
type Account struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Finder resolves a login to exactly one account.
type Finder interface {
	FindByLogin(ctx context.Context, login string) (Account, error)
}

const findByLoginSQL = `SELECT t.id, t.email FROM accounts t WHERE t.email = $1`

// Repository reads accounts from Postgres. Every call is an independent
// read bounded by timeout.
type Repository struct {
	db      store.Querier
	timeout time.Duration
}

// NewRepository reads through db. A zero timeout leaves the caller's deadline
// in charge.
func NewRepository(db store.Querier, timeout time.Duration) *Repository {
	return &Repository{db: db, timeout: timeout}
}

// FindByLogin returns the account whose email equals login. No match is a
// NotFound error; any other failure is a Storage error.
func (r *Repository) FindByLogin(ctx context.Context, login string) (Account, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var a Account
	err := store.ScanOne(ctx, r.db, findByLoginSQL, []any{login}, &a.ID, &a.Email)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, store.ErrNotFound):
		return Account{}, apperr.NotFound("Account not found", err)
	default:
		return Account{}, apperr.Storage(err)
	}
}
