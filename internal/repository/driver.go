package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ridefleet/fleet-admin-go/internal/model"
)

type DriverRepository interface {
	FindByID(ctx context.Context, id string) (*model.Driver, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.Driver, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Driver, error)
	// Upsert looks up a driver by external id, creating the record if it
	// does not exist yet. Existing rows keep their fields; only updated_at
	// moves. Exactly one row per external id exists afterwards.
	Upsert(ctx context.Context, params model.UpsertDriverParams) (*model.Driver, error)
	Update(ctx context.Context, id string, params model.UpdateDriverParams) (*model.Driver, error)
	SetDeviceKeyHash(ctx context.Context, id string, keyHash string) error
	TouchLastConnected(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) DriverRepository
}

type driverRepo struct {
	db tokenDB
}

func NewDriverRepository(db *sqlx.DB) DriverRepository {
	return &driverRepo{db: db}
}

func (r *driverRepo) WithTx(tx *sqlx.Tx) DriverRepository {
	return &driverRepo{db: tx}
}

func (r *driverRepo) FindByID(ctx context.Context, id string) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.GetContext(ctx, &driver, `
		SELECT * FROM drivers WHERE id = $1
	`, id)
	return HandleNotFound(&driver, err)
}

func (r *driverRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.GetContext(ctx, &driver, `
		SELECT * FROM drivers WHERE external_id = $1
	`, externalID)
	return HandleNotFound(&driver, err)
}

func (r *driverRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Driver, error) {
	var drivers []model.Driver
	err := r.db.SelectContext(ctx, &drivers, `
		SELECT * FROM drivers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

func (r *driverRepo) Upsert(ctx context.Context, params model.UpsertDriverParams) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.GetContext(ctx, &driver, `
		INSERT INTO drivers (external_id, name, phone, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE SET
			updated_at = NOW()
		RETURNING *
	`, params.ExternalID, params.Name, params.Phone, params.Email)
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepo) Update(ctx context.Context, id string, params model.UpdateDriverParams) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.GetContext(ctx, &driver, `
		UPDATE drivers SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			email = COALESCE($4, email),
			partner_id = COALESCE($5, partner_id),
			updated_at = $6
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Phone, params.Email, params.PartnerID, time.Now())
	return HandleNotFound(&driver, err)
}

func (r *driverRepo) SetDeviceKeyHash(ctx context.Context, id string, keyHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE drivers SET
			device_key_hash = $2,
			last_connected_at = $3,
			updated_at = $3
		WHERE id = $1
	`, id, keyHash, time.Now())
	return err
}

func (r *driverRepo) TouchLastConnected(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE drivers SET
			last_connected_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *driverRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM drivers`)
	return count, err
}
