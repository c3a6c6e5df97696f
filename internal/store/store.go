package store

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks failures of the database itself (connection
	// exceptions, timeouts, shutdown) as opposed to a bad query.
	ErrUnavailable = errors.New("storage unavailable")
)

// ScanOne runs a single-row query and scans it into dest. Zero rows yields
// ErrNotFound; connection and timeout failures are wrapped with ErrUnavailable.
func ScanOne(ctx context.Context, q Querier, sql string, args []any, dest ...any) error {
	err := q.QueryRow(ctx, sql, args...).Scan(dest...)
	if err == nil {
		return nil
	}
	return Classify(ctx, err)
}

// Classify maps a pgx error onto the package sentinels.
func Classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return fmt.Errorf("query: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("query: %w", err)
}
