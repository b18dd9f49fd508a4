package service

import (
	"context"
	"time"

	"github.com/ridefleet/fleet-admin-go/internal/config"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

// AdminService handles admin console authentication and dashboard stats.
type AdminService struct {
	sessionRepo   repository.AdminSessionRepository
	staffRepo     repository.StaffUserRepository
	driverRepo    repository.DriverRepository
	partnerRepo   repository.PartnerRepository
	rideRepo      repository.RideRepository
	passwordHash  string
	sessionSecret string
}

func NewAdminService(
	sessionRepo repository.AdminSessionRepository,
	staffRepo repository.StaffUserRepository,
	driverRepo repository.DriverRepository,
	partnerRepo repository.PartnerRepository,
	rideRepo repository.RideRepository,
	passwordHash, sessionSecret string,
) *AdminService {
	return &AdminService{
		sessionRepo:   sessionRepo,
		staffRepo:     staffRepo,
		driverRepo:    driverRepo,
		partnerRepo:   partnerRepo,
		rideRepo:      rideRepo,
		passwordHash:  passwordHash,
		sessionSecret: sessionSecret,
	}
}

// Login verifies the admin password and mints a session token. An empty
// return token with nil error means the password was wrong.
func (s *AdminService) Login(ctx context.Context, password string) (string, error) {
	if !util.CheckPasswordHash(password, s.passwordHash) {
		return "", nil
	}

	token, err := util.GenerateToken()
	if err != nil {
		return "", err
	}

	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	expiresAt := time.Now().Add(config.AdminSessionTTL)

	_, err = s.sessionRepo.Create(ctx, model.CreateAdminSessionParams{
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func (s *AdminService) Logout(ctx context.Context, token string) error {
	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	return s.sessionRepo.DeleteByTokenHash(ctx, tokenHash)
}

type Stats struct {
	Drivers  int `json:"drivers"`
	Staff    int `json:"staff"`
	Partners int `json:"partners"`
	Rides    struct {
		Total     int `json:"total"`
		Scheduled int `json:"scheduled"`
		Assigned  int `json:"assigned"`
		EnRoute   int `json:"enRoute"`
	} `json:"rides"`
}

func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	drivers, _ := s.driverRepo.Count(ctx)
	stats.Drivers = drivers

	staff, _ := s.staffRepo.Count(ctx)
	stats.Staff = staff

	partners, _ := s.partnerRepo.Count(ctx)
	stats.Partners = partners

	total, _ := s.rideRepo.Count(ctx)
	stats.Rides.Total = total

	scheduled, _ := s.rideRepo.CountByStatus(ctx, model.RideStatusScheduled)
	stats.Rides.Scheduled = scheduled

	assigned, _ := s.rideRepo.CountByStatus(ctx, model.RideStatusAssigned)
	stats.Rides.Assigned = assigned

	enRoute, _ := s.rideRepo.CountByStatus(ctx, model.RideStatusEnRoute)
	stats.Rides.EnRoute = enRoute

	return stats, nil
}
