package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ridefleet/fleet-admin-go/internal/model"
)

type MobileDeviceRepository interface {
	FindByOwner(ctx context.Context, kind model.IdentityKind, ownerID string) ([]model.MobileDevice, error)
	// Upsert registers a device for an identity, keyed by owner and device
	// name. Re-registering refreshes model, platform and last_active_at.
	Upsert(ctx context.Context, params model.UpsertMobileDeviceParams) (*model.MobileDevice, error)
	TouchLastActive(ctx context.Context, kind model.IdentityKind, ownerID string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) MobileDeviceRepository
}

type mobileDeviceRepo struct {
	db tokenDB
}

func NewMobileDeviceRepository(db *sqlx.DB) MobileDeviceRepository {
	return &mobileDeviceRepo{db: db}
}

func (r *mobileDeviceRepo) WithTx(tx *sqlx.Tx) MobileDeviceRepository {
	return &mobileDeviceRepo{db: tx}
}

func (r *mobileDeviceRepo) FindByOwner(ctx context.Context, kind model.IdentityKind, ownerID string) ([]model.MobileDevice, error) {
	var devices []model.MobileDevice
	err := r.db.SelectContext(ctx, &devices, `
		SELECT * FROM mobile_devices
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY last_active_at DESC
	`, kind, ownerID)
	return devices, err
}

func (r *mobileDeviceRepo) Upsert(ctx context.Context, params model.UpsertMobileDeviceParams) (*model.MobileDevice, error) {
	var device model.MobileDevice
	err := r.db.GetContext(ctx, &device, `
		INSERT INTO mobile_devices (owner_kind, owner_id, device_name, device_model, platform)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_kind, owner_id, device_name) DO UPDATE SET
			device_model = EXCLUDED.device_model,
			platform = EXCLUDED.platform,
			last_active_at = NOW()
		RETURNING *
	`, params.OwnerKind, params.OwnerID, params.DeviceName, params.DeviceModel, params.Platform)
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *mobileDeviceRepo) TouchLastActive(ctx context.Context, kind model.IdentityKind, ownerID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE mobile_devices SET
			last_active_at = $3
		WHERE owner_kind = $1 AND owner_id = $2
	`, kind, ownerID, time.Now())
	return err
}
