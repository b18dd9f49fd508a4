package service

import (
	"context"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
)

// DriverWithDevices is the admin detail view of a driver: the record plus
// its paired devices, which inform the "last connected" status.
type DriverWithDevices struct {
	model.Driver
	Devices []model.MobileDevice `json:"devices"`
}

type DriverService struct {
	driverRepo repository.DriverRepository
	deviceRepo repository.MobileDeviceRepository
}

func NewDriverService(
	driverRepo repository.DriverRepository,
	deviceRepo repository.MobileDeviceRepository,
) *DriverService {
	return &DriverService{
		driverRepo: driverRepo,
		deviceRepo: deviceRepo,
	}
}

func (s *DriverService) List(ctx context.Context, limit, offset int) ([]model.Driver, error) {
	drivers, err := s.driverRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return drivers, nil
}

func (s *DriverService) Get(ctx context.Context, id string) (*DriverWithDevices, error) {
	driver, err := s.driverRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if driver == nil {
		return nil, apperrors.NotFound("Driver")
	}

	devices, err := s.deviceRepo.FindByOwner(ctx, model.IdentityKindDriver, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &DriverWithDevices{Driver: *driver, Devices: devices}, nil
}

func (s *DriverService) Update(ctx context.Context, id string, params model.UpdateDriverParams) (*model.Driver, error) {
	driver, err := s.driverRepo.Update(ctx, id, params)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("Driver email already in use")
		}
		return nil, apperrors.Database(err)
	}
	if driver == nil {
		return nil, apperrors.NotFound("Driver")
	}
	return driver, nil
}
