package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

const mobileRideListLimit = 50

func validRideStatus(status model.RideStatus) bool {
	return status != "" && util.IsValidEnum(string(status), model.RideStatuses)
}

type CreateRideInput struct {
	PassengerName  string
	PartnerID      *string
	PickupAddress  string
	PickupLat      *float64
	PickupLon      *float64
	DropoffAddress string
	DropoffLat     *float64
	DropoffLon     *float64
	ScheduledAt    time.Time
}

type RideService struct {
	rideRepo   repository.RideRepository
	driverRepo repository.DriverRepository
}

func NewRideService(
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
) *RideService {
	return &RideService{
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
	}
}

func (s *RideService) List(ctx context.Context, limit, offset int) ([]model.Ride, error) {
	rides, err := s.rideRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return rides, nil
}

func (s *RideService) Get(ctx context.Context, id string) (*model.Ride, error) {
	ride, err := s.rideRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if ride == nil {
		return nil, apperrors.NotFound("Ride")
	}
	return ride, nil
}

func (s *RideService) Create(ctx context.Context, input CreateRideInput) (*model.Ride, error) {
	if input.PassengerName == "" {
		return nil, apperrors.MissingRequired("passengerName")
	}
	if input.PickupAddress == "" {
		return nil, apperrors.MissingRequired("pickupAddress")
	}
	if input.DropoffAddress == "" {
		return nil, apperrors.MissingRequired("dropoffAddress")
	}
	if input.ScheduledAt.IsZero() {
		return nil, apperrors.MissingRequired("scheduledAt")
	}

	ride, err := s.rideRepo.Create(ctx, model.CreateRideParams{
		ID:             uuid.NewString(),
		PassengerName:  input.PassengerName,
		PartnerID:      input.PartnerID,
		PickupAddress:  input.PickupAddress,
		PickupLat:      input.PickupLat,
		PickupLon:      input.PickupLon,
		DropoffAddress: input.DropoffAddress,
		DropoffLat:     input.DropoffLat,
		DropoffLon:     input.DropoffLon,
		ScheduledAt:    input.ScheduledAt,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return ride, nil
}

func (s *RideService) Update(ctx context.Context, id string, params model.UpdateRideParams) (*model.Ride, error) {
	if params.Status != nil && !validRideStatus(*params.Status) {
		return nil, apperrors.InvalidInput("status", string(*params.Status))
	}

	ride, err := s.rideRepo.Update(ctx, id, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if ride == nil {
		return nil, apperrors.NotFound("Ride")
	}
	return ride, nil
}

// Assign attaches a driver to a ride and moves it to assigned.
func (s *RideService) Assign(ctx context.Context, rideID, driverID string) (*model.Ride, error) {
	driver, err := s.driverRepo.FindByID(ctx, driverID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if driver == nil {
		return nil, apperrors.NotFound("Driver")
	}
	if driver.DisabledAt != nil {
		return nil, apperrors.Conflict("Driver is disabled")
	}

	status := model.RideStatusAssigned
	ride, err := s.rideRepo.Update(ctx, rideID, model.UpdateRideParams{
		DriverID: &driverID,
		Status:   &status,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if ride == nil {
		return nil, apperrors.NotFound("Ride")
	}

	log.Info().
		Str("rideId", rideID).
		Str("driverId", driverID).
		Msg("ride assigned")

	return ride, nil
}

// WorkItems returns the rides currently relevant to an authorized mobile
// identity: a driver sees rides assigned to them, staff see the upcoming
// schedule.
func (s *RideService) WorkItems(ctx context.Context, identity model.PairedIdentity) ([]model.Ride, error) {
	var rides []model.Ride
	var err error

	switch identity.Kind {
	case model.IdentityKindDriver:
		rides, err = s.rideRepo.FindAssignedToDriver(ctx, identity.ID)
	case model.IdentityKindStaff:
		rides, err = s.rideRepo.FindUpcoming(ctx, mobileRideListLimit)
	default:
		return nil, apperrors.InvalidInput("identity kind", string(identity.Kind))
	}

	if err != nil {
		return nil, apperrors.Database(err)
	}
	return rides, nil
}
