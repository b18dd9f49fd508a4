package service

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

type PartnerService struct {
	partnerRepo repository.PartnerRepository
}

func NewPartnerService(partnerRepo repository.PartnerRepository) *PartnerService {
	return &PartnerService{partnerRepo: partnerRepo}
}

func (s *PartnerService) List(ctx context.Context, limit, offset int) ([]model.Partner, error) {
	partners, err := s.partnerRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return partners, nil
}

func (s *PartnerService) Get(ctx context.Context, id string) (*model.Partner, error) {
	partner, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if partner == nil {
		return nil, apperrors.NotFound("Partner")
	}
	return partner, nil
}

func (s *PartnerService) Create(ctx context.Context, name, contactEmail string, phone *string) (*model.Partner, error) {
	if name == "" {
		return nil, apperrors.MissingRequired("name")
	}
	if !util.IsValidEmail(contactEmail) {
		return nil, apperrors.InvalidInput("contactEmail", "must be a valid email address")
	}

	partner, err := s.partnerRepo.Create(ctx, model.CreatePartnerParams{
		ID:           uuid.NewString(),
		Name:         name,
		ContactEmail: contactEmail,
		Phone:        phone,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("Partner")
		}
		return nil, apperrors.Database(err)
	}
	return partner, nil
}

func (s *PartnerService) Update(ctx context.Context, id string, params model.UpdatePartnerParams) (*model.Partner, error) {
	partner, err := s.partnerRepo.Update(ctx, id, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if partner == nil {
		return nil, apperrors.NotFound("Partner")
	}
	return partner, nil
}

func (s *PartnerService) Delete(ctx context.Context, id string) error {
	partner, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Database(err)
	}
	if partner == nil {
		return apperrors.NotFound("Partner")
	}
	if err := s.partnerRepo.Delete(ctx, id); err != nil {
		return apperrors.Database(err)
	}
	return nil
}
