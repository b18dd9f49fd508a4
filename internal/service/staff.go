package service

import (
	"context"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
)

// StaffService is read-only: staff accounts are provisioned out of band,
// the dashboard only needs them for display and for binding tokens.
type StaffService struct {
	staffRepo  repository.StaffUserRepository
	deviceRepo repository.MobileDeviceRepository
}

func NewStaffService(
	staffRepo repository.StaffUserRepository,
	deviceRepo repository.MobileDeviceRepository,
) *StaffService {
	return &StaffService{
		staffRepo:  staffRepo,
		deviceRepo: deviceRepo,
	}
}

func (s *StaffService) List(ctx context.Context, limit, offset int) ([]model.StaffUser, error) {
	users, err := s.staffRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return users, nil
}

type StaffWithDevices struct {
	model.StaffUser
	Devices []model.MobileDevice `json:"devices"`
}

func (s *StaffService) Get(ctx context.Context, id string) (*StaffWithDevices, error) {
	user, err := s.staffRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("Staff user")
	}

	devices, err := s.deviceRepo.FindByOwner(ctx, model.IdentityKindStaff, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &StaffWithDevices{StaffUser: *user, Devices: devices}, nil
}
