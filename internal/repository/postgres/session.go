package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.Session) error {
	profile, err := json.Marshal(s.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	query := `INSERT INTO sessions (id, sealed_token, profile, created_on, updated_on, expires_on)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	now := time.Now().UTC()
	s.CreatedOn = now
	s.UpdatedOn = now
	logger.DatabaseCall("insert", "sessions", "session_id", s.ID)
	res, err := r.db.ExecContext(ctx, query, s.ID, s.SealedToken, profile, s.CreatedOn, s.UpdatedOn, s.ExpiresOn)
	logger.DatabaseResult("insert", rowsAffected(res), err, "table", "sessions")
	return err
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s := &domain.Session{}
	var profile []byte
	query := `SELECT id, sealed_token, profile, created_on, updated_on, expires_on FROM sessions WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.SealedToken, &profile, &s.CreatedOn, &s.UpdatedOn, &s.ExpiresOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(profile, &s.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile of session %s: %w", id, err)
	}
	return s, nil
}

func (r *sessionRepository) UpdateProfile(ctx context.Context, id string, profile domain.User) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	query := `UPDATE sessions SET profile=$1, updated_on=$2 WHERE id=$3`
	res, err := r.db.ExecContext(ctx, query, data, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	logger.DatabaseCall("delete", "sessions", "before", now)
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_on <= $1`, now)
	n := rowsAffected(res)
	logger.DatabaseResult("delete", n, err, "table", "sessions")
	return n, err
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
