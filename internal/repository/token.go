package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ridefleet/fleet-admin-go/internal/model"
)

type ConnectionTokenRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.ConnectionToken, error)
	FindActiveByStaffID(ctx context.Context, staffID string) ([]model.ConnectionToken, error)
	FindActiveByDriverID(ctx context.Context, driverID string) ([]model.ConnectionToken, error)
	Create(ctx context.Context, params model.CreateConnectionTokenParams) (*model.ConnectionToken, error)
	// Redeem performs the conditional used_at transition. It returns the
	// updated row when this caller won the transition, or nil when the
	// token is absent, already used, or expired. This single guarded
	// UPDATE is the serialization point for concurrent redemptions.
	Redeem(ctx context.Context, tokenHash string) (*model.ConnectionToken, error)
	// BindDriver records which driver a self-registration token resolved to.
	BindDriver(ctx context.Context, id string, driverID string) error
	DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ConnectionTokenRepository
}

// tokenDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type tokenDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type connectionTokenRepo struct {
	db tokenDB
}

func NewConnectionTokenRepository(db *sqlx.DB) ConnectionTokenRepository {
	return &connectionTokenRepo{db: db}
}

func (r *connectionTokenRepo) WithTx(tx *sqlx.Tx) ConnectionTokenRepository {
	return &connectionTokenRepo{db: tx}
}

func (r *connectionTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.ConnectionToken, error) {
	var token model.ConnectionToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM connection_tokens WHERE token_hash = $1
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *connectionTokenRepo) FindActiveByStaffID(ctx context.Context, staffID string) ([]model.ConnectionToken, error) {
	var tokens []model.ConnectionToken
	err := r.db.SelectContext(ctx, &tokens, `
		SELECT * FROM connection_tokens
		WHERE staff_id = $1 AND used_at IS NULL AND expires_at > NOW()
		ORDER BY created_at DESC
	`, staffID)
	return tokens, err
}

func (r *connectionTokenRepo) FindActiveByDriverID(ctx context.Context, driverID string) ([]model.ConnectionToken, error) {
	var tokens []model.ConnectionToken
	err := r.db.SelectContext(ctx, &tokens, `
		SELECT * FROM connection_tokens
		WHERE driver_id = $1 AND used_at IS NULL AND expires_at > NOW()
		ORDER BY created_at DESC
	`, driverID)
	return tokens, err
}

func (r *connectionTokenRepo) Create(ctx context.Context, params model.CreateConnectionTokenParams) (*model.ConnectionToken, error) {
	var token model.ConnectionToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO connection_tokens (token_hash, staff_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.TokenHash, params.StaffID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *connectionTokenRepo) Redeem(ctx context.Context, tokenHash string) (*model.ConnectionToken, error) {
	var token model.ConnectionToken
	err := r.db.GetContext(ctx, &token, `
		UPDATE connection_tokens SET
			used_at = NOW()
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING *
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *connectionTokenRepo) BindDriver(ctx context.Context, id string, driverID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE connection_tokens SET
			driver_id = $2
		WHERE id = $1
	`, id, driverID)
	return err
}

func (r *connectionTokenRepo) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM connection_tokens
		WHERE (expires_at < $1 AND used_at IS NULL)
		OR used_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
