package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ridefleet/fleet-admin-go/internal/model"
)

type StaffUserRepository interface {
	FindByID(ctx context.Context, id string) (*model.StaffUser, error)
	FindByEmail(ctx context.Context, email string) (*model.StaffUser, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.StaffUser, error)
	SetDeviceKeyHash(ctx context.Context, id string, keyHash string) error
	TouchLastConnected(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) StaffUserRepository
}

type staffUserRepo struct {
	db tokenDB
}

func NewStaffUserRepository(db *sqlx.DB) StaffUserRepository {
	return &staffUserRepo{db: db}
}

func (r *staffUserRepo) WithTx(tx *sqlx.Tx) StaffUserRepository {
	return &staffUserRepo{db: tx}
}

func (r *staffUserRepo) FindByID(ctx context.Context, id string) (*model.StaffUser, error) {
	var user model.StaffUser
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM staff_users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *staffUserRepo) FindByEmail(ctx context.Context, email string) (*model.StaffUser, error) {
	var user model.StaffUser
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM staff_users WHERE email = $1
	`, email)
	return HandleNotFound(&user, err)
}

func (r *staffUserRepo) FindAll(ctx context.Context, limit, offset int) ([]model.StaffUser, error) {
	var users []model.StaffUser
	err := r.db.SelectContext(ctx, &users, `
		SELECT * FROM staff_users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *staffUserRepo) SetDeviceKeyHash(ctx context.Context, id string, keyHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE staff_users SET
			device_key_hash = $2,
			last_connected_at = $3,
			updated_at = $3
		WHERE id = $1
	`, id, keyHash, time.Now())
	return err
}

func (r *staffUserRepo) TouchLastConnected(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE staff_users SET
			last_connected_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *staffUserRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM staff_users`)
	return count, err
}
