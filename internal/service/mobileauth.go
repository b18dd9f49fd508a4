package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

// MobileAuthService mints and validates the per-device credential presented
// on unauthenticated mobile calls. The credential is a 32-byte random key;
// only its keyed hash is stored, and validation is a full constant-time
// comparison. A missing identity and a wrong key are indistinguishable to
// the caller.
type MobileAuthService struct {
	staffRepo  repository.StaffUserRepository
	driverRepo repository.DriverRepository
	deviceRepo repository.MobileDeviceRepository
	keySecret  string
}

func NewMobileAuthService(
	staffRepo repository.StaffUserRepository,
	driverRepo repository.DriverRepository,
	deviceRepo repository.MobileDeviceRepository,
	keySecret string,
) *MobileAuthService {
	return &MobileAuthService{
		staffRepo:  staffRepo,
		driverRepo: driverRepo,
		deviceRepo: deviceRepo,
		keySecret:  keySecret,
	}
}

// MintKey produces a fresh device key and the hash to store for it.
// The raw key is returned to the device exactly once, at redemption.
func (s *MobileAuthService) MintKey() (key string, keyHash string, err error) {
	key, err = util.GenerateToken()
	if err != nil {
		return "", "", fmt.Errorf("generate device key: %w", err)
	}
	return key, s.HashKey(key), nil
}

func (s *MobileAuthService) HashKey(key string) string {
	return util.HmacSHA256(s.keySecret, key)
}

// Authorize validates that presentedKey is the credential minted for the
// given identity and that the identity still exists. On success the
// identity's last_connected timestamp is refreshed.
func (s *MobileAuthService) Authorize(ctx context.Context, identity model.PairedIdentity, presentedKey string) error {
	storedHash, err := s.lookupKeyHash(ctx, identity)
	if err != nil {
		log.Error().Err(err).
			Str("identityKind", string(identity.Kind)).
			Str("identityId", identity.ID).
			Msg("device authorization: database error")
		return apperrors.Database(err)
	}

	// Unknown identity and wrong key take the same path so the response
	// does not leak which identities exist.
	if storedHash == nil || presentedKey == "" ||
		!util.ConstantTimeEqual(*storedHash, s.HashKey(presentedKey)) {
		return apperrors.Unauthorized("Invalid device credentials")
	}

	if err := s.touchLastConnected(ctx, identity); err != nil {
		log.Warn().Err(err).
			Str("identityId", identity.ID).
			Msg("device authorization: failed to refresh last connected")
	}

	return nil
}

func (s *MobileAuthService) lookupKeyHash(ctx context.Context, identity model.PairedIdentity) (*string, error) {
	switch identity.Kind {
	case model.IdentityKindStaff:
		user, err := s.staffRepo.FindByID(ctx, identity.ID)
		if err != nil || user == nil {
			return nil, err
		}
		return user.DeviceKeyHash, nil
	case model.IdentityKindDriver:
		driver, err := s.driverRepo.FindByID(ctx, identity.ID)
		if err != nil || driver == nil {
			return nil, err
		}
		if driver.DisabledAt != nil {
			return nil, nil
		}
		return driver.DeviceKeyHash, nil
	}
	return nil, nil
}

func (s *MobileAuthService) touchLastConnected(ctx context.Context, identity model.PairedIdentity) error {
	if err := s.deviceRepo.TouchLastActive(ctx, identity.Kind, identity.ID); err != nil {
		return err
	}
	switch identity.Kind {
	case model.IdentityKindStaff:
		return s.staffRepo.TouchLastConnected(ctx, identity.ID)
	case model.IdentityKindDriver:
		return s.driverRepo.TouchLastConnected(ctx, identity.ID)
	}
	return nil
}
