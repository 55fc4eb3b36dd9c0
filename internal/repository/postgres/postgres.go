package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/migrations"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

type Store struct {
	db *sql.DB
	repository.SessionRepository
	repository.CheckoutAttemptRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                        db,
		SessionRepository:         NewSessionRepository(db),
		CheckoutAttemptRepository: NewCheckoutAttemptRepository(db),
	}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies any pending schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("Applied migration", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}
	return nil
}
