package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ridefleet/fleet-admin-go/internal/model"
)

type RideRepository interface {
	FindByID(ctx context.Context, id string) (*model.Ride, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Ride, error)
	FindAssignedToDriver(ctx context.Context, driverID string) ([]model.Ride, error)
	FindUpcoming(ctx context.Context, limit int) ([]model.Ride, error)
	Create(ctx context.Context, params model.CreateRideParams) (*model.Ride, error)
	Update(ctx context.Context, id string, params model.UpdateRideParams) (*model.Ride, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status model.RideStatus) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) RideRepository
}

type rideRepo struct {
	db tokenDB
}

func NewRideRepository(db *sqlx.DB) RideRepository {
	return &rideRepo{db: db}
}

func (r *rideRepo) WithTx(tx *sqlx.Tx) RideRepository {
	return &rideRepo{db: tx}
}

func (r *rideRepo) FindByID(ctx context.Context, id string) (*model.Ride, error) {
	var ride model.Ride
	err := r.db.GetContext(ctx, &ride, `
		SELECT * FROM rides WHERE id = $1
	`, id)
	return HandleNotFound(&ride, err)
}

func (r *rideRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Ride, error) {
	var rides []model.Ride
	err := r.db.SelectContext(ctx, &rides, `
		SELECT * FROM rides
		ORDER BY scheduled_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rides, nil
}

func (r *rideRepo) FindAssignedToDriver(ctx context.Context, driverID string) ([]model.Ride, error) {
	var rides []model.Ride
	err := r.db.SelectContext(ctx, &rides, `
		SELECT * FROM rides
		WHERE driver_id = $1
		AND status IN ('assigned', 'en_route')
		ORDER BY scheduled_at DESC
	`, driverID)
	return rides, err
}

func (r *rideRepo) FindUpcoming(ctx context.Context, limit int) ([]model.Ride, error) {
	var rides []model.Ride
	err := r.db.SelectContext(ctx, &rides, `
		SELECT * FROM rides
		WHERE status IN ('scheduled', 'assigned', 'en_route')
		ORDER BY scheduled_at DESC
		LIMIT $1
	`, limit)
	return rides, err
}

func (r *rideRepo) Create(ctx context.Context, params model.CreateRideParams) (*model.Ride, error) {
	var ride model.Ride
	err := r.db.GetContext(ctx, &ride, `
		INSERT INTO rides (
			id, passenger_name, partner_id,
			pickup_address, pickup_lat, pickup_lon,
			dropoff_address, dropoff_lat, dropoff_lon,
			scheduled_at, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'scheduled')
		RETURNING *
	`, params.ID, params.PassengerName, params.PartnerID,
		params.PickupAddress, params.PickupLat, params.PickupLon,
		params.DropoffAddress, params.DropoffLat, params.DropoffLon,
		params.ScheduledAt)
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

func (r *rideRepo) Update(ctx context.Context, id string, params model.UpdateRideParams) (*model.Ride, error) {
	var ride model.Ride
	err := r.db.GetContext(ctx, &ride, `
		UPDATE rides SET
			passenger_name = COALESCE($2, passenger_name),
			driver_id = COALESCE($3, driver_id),
			pickup_address = COALESCE($4, pickup_address),
			dropoff_address = COALESCE($5, dropoff_address),
			scheduled_at = COALESCE($6, scheduled_at),
			status = COALESCE($7, status),
			updated_at = $8
		WHERE id = $1
		RETURNING *
	`, id, params.PassengerName, params.DriverID, params.PickupAddress,
		params.DropoffAddress, params.ScheduledAt, params.Status, time.Now())
	return HandleNotFound(&ride, err)
}

func (r *rideRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM rides`)
	return count, err
}

func (r *rideRepo) CountByStatus(ctx context.Context, status model.RideStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM rides WHERE status = $1
	`, status)
	return count, err
}
