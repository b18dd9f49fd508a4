package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ridefleet/fleet-admin-go/internal/config"
	"github.com/ridefleet/fleet-admin-go/internal/database"
	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/qr"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

// IssueResult carries everything the admin console needs to hand a pairing
// code to a human: the raw token for non-QR flows, the rendered QR image,
// and the expiry.
type IssueResult struct {
	Token      string    `json:"token"`
	PairingURL string    `json:"pairingUrl"`
	QRImage    string    `json:"qrImage"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// DriverRegistration is the identifying information a driver supplies when
// redeeming an unbound token.
type DriverRegistration struct {
	ExternalID string  `json:"externalId"`
	Name       string  `json:"name"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
}

// DeviceInfo is optional device metadata captured at redemption.
type DeviceInfo struct {
	DeviceName  string `json:"deviceName"`
	DeviceModel string `json:"deviceModel"`
	Platform    string `json:"platform"`
}

// RedeemResult is the successful outcome of a redemption: the resolved
// identity and the freshly minted device key.
type RedeemResult struct {
	Identity  model.PairedIdentity `json:"identity"`
	DeviceKey string               `json:"deviceKey"`
}

// PairingService owns the connection-token lifecycle: issuance with QR
// rendering, single-shot redemption, and active-token listing.
type PairingService struct {
	db         *database.DB
	tokenRepo  repository.ConnectionTokenRepository
	staffRepo  repository.StaffUserRepository
	driverRepo repository.DriverRepository
	deviceRepo repository.MobileDeviceRepository
	auth       *MobileAuthService
	baseURL    string
}

func NewPairingService(
	db *database.DB,
	tokenRepo repository.ConnectionTokenRepository,
	staffRepo repository.StaffUserRepository,
	driverRepo repository.DriverRepository,
	deviceRepo repository.MobileDeviceRepository,
	auth *MobileAuthService,
	baseURL string,
) *PairingService {
	return &PairingService{
		db:         db,
		tokenRepo:  tokenRepo,
		staffRepo:  staffRepo,
		driverRepo: driverRepo,
		deviceRepo: deviceRepo,
		auth:       auth,
		baseURL:    baseURL,
	}
}

// IssueToken creates a connection token valid for one hour. adminID is the
// authenticated admin caller, resolved at the request boundary; staffID
// optionally pre-binds the token to an internal user. An unbound token
// allows driver self-registration at redemption time.
func (s *PairingService) IssueToken(ctx context.Context, adminID string, staffID *string) (*IssueResult, error) {
	if adminID == "" {
		return nil, apperrors.Unauthenticated("Admin authentication required")
	}

	if staffID != nil {
		user, err := s.staffRepo.FindByID(ctx, *staffID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if user == nil {
			return nil, apperrors.NotFound("Staff user")
		}
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token").WithCause(err)
	}

	expiresAt := time.Now().Add(config.ConnectionTokenTTL)

	created, err := s.tokenRepo.Create(ctx, model.CreateConnectionTokenParams{
		TokenHash: util.HashToken(token),
		StaffID:   staffID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		// A 256-bit token colliding means something is wrong with the
		// entropy source; surface it rather than retrying.
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("Token collision on creation")
		}
		return nil, apperrors.Database(err)
	}

	pairingURL := qr.PairingURL(s.baseURL, token)
	image, err := qr.EncodeDataURI(pairingURL)
	if err != nil {
		return nil, apperrors.Internal("Failed to render pairing code").WithCause(err)
	}

	log.Info().
		Str("tokenId", created.ID).
		Str("adminId", adminID).
		Bool("bound", staffID != nil).
		Time("expiresAt", expiresAt).
		Msg("connection token issued")

	return &IssueResult{
		Token:      token,
		PairingURL: pairingURL,
		QRImage:    image,
		ExpiresAt:  expiresAt,
	}, nil
}

// RedeemToken validates and consumes a connection token, resolving the
// caller's identity and minting its device credential. The used_at
// transition, identity resolution and key mint commit atomically: two
// requests racing on the same token yield exactly one success.
func (s *PairingService) RedeemToken(ctx context.Context, rawToken string, reg *DriverRegistration, device *DeviceInfo) (*RedeemResult, error) {
	if rawToken == "" {
		return nil, apperrors.MissingRequired("token")
	}

	tokenHash := util.HashToken(rawToken)
	var result *RedeemResult

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		tokens := s.tokenRepo.WithTx(tx)

		token, err := tokens.Redeem(ctx, tokenHash)
		if err != nil {
			return apperrors.Database(err)
		}
		if token == nil {
			return s.classifyRedeemFailure(ctx, tokenHash)
		}

		identity, err := s.resolveIdentity(ctx, tx, token, reg)
		if err != nil {
			return err
		}

		key, keyHash, err := s.auth.MintKey()
		if err != nil {
			return apperrors.Internal("Failed to mint device key").WithCause(err)
		}

		if err := s.storeDeviceKey(ctx, tx, identity, keyHash); err != nil {
			return apperrors.Database(err)
		}

		if device != nil && device.DeviceName != "" {
			_, err := s.deviceRepo.WithTx(tx).Upsert(ctx, model.UpsertMobileDeviceParams{
				OwnerKind:   identity.Kind,
				OwnerID:     identity.ID,
				DeviceName:  device.DeviceName,
				DeviceModel: device.DeviceModel,
				Platform:    device.Platform,
			})
			if err != nil {
				return apperrors.Database(err)
			}
		}

		result = &RedeemResult{Identity: identity, DeviceKey: key}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("identityKind", string(result.Identity.Kind)).
		Str("identityId", result.Identity.ID).
		Msg("connection token redeemed")

	return result, nil
}

// classifyRedeemFailure distinguishes the three terminal failure kinds after
// the guarded update matched no row. The re-read races only forward: a token
// can become used or expired between the two statements, never redeemable
// again, so the classification is safe.
func (s *PairingService) classifyRedeemFailure(ctx context.Context, tokenHash string) error {
	token, err := s.tokenRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return apperrors.Database(err)
	}
	if token == nil {
		return apperrors.TokenNotFound()
	}
	if token.UsedAt != nil {
		return apperrors.TokenAlreadyUsed()
	}
	return apperrors.TokenExpired()
}

func (s *PairingService) resolveIdentity(ctx context.Context, tx *sqlx.Tx, token *model.ConnectionToken, reg *DriverRegistration) (model.PairedIdentity, error) {
	// Bound token: the internal user was chosen at issuance; pairing never
	// creates the record.
	if token.StaffID != nil {
		user, err := s.staffRepo.WithTx(tx).FindByID(ctx, *token.StaffID)
		if err != nil {
			return model.PairedIdentity{}, apperrors.Database(err)
		}
		if user == nil {
			return model.PairedIdentity{}, apperrors.NotFound("Staff user")
		}
		return model.StaffIdentity(user.ID), nil
	}

	// Unbound token: driver self-registration. Lookup-or-create by the
	// driver's external id.
	if reg == nil || reg.ExternalID == "" {
		return model.PairedIdentity{}, apperrors.MissingRequired("externalId")
	}
	if reg.Name == "" {
		return model.PairedIdentity{}, apperrors.MissingRequired("name")
	}

	driver, err := s.driverRepo.WithTx(tx).Upsert(ctx, model.UpsertDriverParams{
		ExternalID: reg.ExternalID,
		Name:       reg.Name,
		Phone:      reg.Phone,
		Email:      reg.Email,
	})
	if err != nil {
		return model.PairedIdentity{}, apperrors.Database(err)
	}

	if err := s.tokenRepo.WithTx(tx).BindDriver(ctx, token.ID, driver.ID); err != nil {
		return model.PairedIdentity{}, apperrors.Database(err)
	}

	return model.DriverIdentity(driver.ID), nil
}

func (s *PairingService) storeDeviceKey(ctx context.Context, tx *sqlx.Tx, identity model.PairedIdentity, keyHash string) error {
	switch identity.Kind {
	case model.IdentityKindStaff:
		return s.staffRepo.WithTx(tx).SetDeviceKeyHash(ctx, identity.ID, keyHash)
	case model.IdentityKindDriver:
		return s.driverRepo.WithTx(tx).SetDeviceKeyHash(ctx, identity.ID, keyHash)
	}
	return fmt.Errorf("unknown identity kind %q", identity.Kind)
}

// ListActiveTokens returns the unused, unexpired tokens for an identity,
// newest first.
func (s *PairingService) ListActiveTokens(ctx context.Context, identity model.PairedIdentity) ([]model.ConnectionToken, error) {
	switch identity.Kind {
	case model.IdentityKindStaff:
		return s.tokenRepo.FindActiveByStaffID(ctx, identity.ID)
	case model.IdentityKindDriver:
		return s.tokenRepo.FindActiveByDriverID(ctx, identity.ID)
	}
	return nil, apperrors.InvalidInput("identity kind", string(identity.Kind))
}
