package service

import (
	"context"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
)

type DeviceService struct {
	deviceRepo repository.MobileDeviceRepository
}

func NewDeviceService(deviceRepo repository.MobileDeviceRepository) *DeviceService {
	return &DeviceService{deviceRepo: deviceRepo}
}

func (s *DeviceService) Register(ctx context.Context, params model.UpsertMobileDeviceParams) (*model.MobileDevice, error) {
	device, err := s.deviceRepo.Upsert(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return device, nil
}

func (s *DeviceService) ListForOwner(ctx context.Context, kind model.IdentityKind, ownerID string) ([]model.MobileDevice, error) {
	devices, err := s.deviceRepo.FindByOwner(ctx, kind, ownerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return devices, nil
}
