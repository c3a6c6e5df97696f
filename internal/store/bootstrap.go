package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"auth-backend/internal/logger"
)

const accountsTableSQL = `
CREATE TABLE IF NOT EXISTS accounts (
    id         BIGSERIAL PRIMARY KEY,
    email      TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
`

// Bootstrap creates the accounts table when it does not exist. It never
// alters an existing table.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, accountsTableSQL); err != nil {
		return fmt.Errorf("bootstrap accounts table: %w", err)
	}
	var count int64
	if err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	logger.Named("store").Info("accounts table ready", zap.Int64("accounts", count))
	return nil
}
