package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
)

// Mock repositories

type mockConnectionTokenRepo struct {
	mock.Mock
}

func (m *mockConnectionTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.ConnectionToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectionToken), args.Error(1)
}

func (m *mockConnectionTokenRepo) FindActiveByStaffID(ctx context.Context, staffID string) ([]model.ConnectionToken, error) {
	args := m.Called(ctx, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ConnectionToken), args.Error(1)
}

func (m *mockConnectionTokenRepo) FindActiveByDriverID(ctx context.Context, driverID string) ([]model.ConnectionToken, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ConnectionToken), args.Error(1)
}

func (m *mockConnectionTokenRepo) Create(ctx context.Context, params model.CreateConnectionTokenParams) (*model.ConnectionToken, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectionToken), args.Error(1)
}

func (m *mockConnectionTokenRepo) Redeem(ctx context.Context, tokenHash string) (*model.ConnectionToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectionToken), args.Error(1)
}

func (m *mockConnectionTokenRepo) BindDriver(ctx context.Context, id string, driverID string) error {
	args := m.Called(ctx, id, driverID)
	return args.Error(0)
}

func (m *mockConnectionTokenRepo) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockConnectionTokenRepo) WithTx(tx *sqlx.Tx) repository.ConnectionTokenRepository {
	return m
}

type mockStaffUserRepo struct {
	mock.Mock
}

func (m *mockStaffUserRepo) FindByID(ctx context.Context, id string) (*model.StaffUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StaffUser), args.Error(1)
}

func (m *mockStaffUserRepo) FindByEmail(ctx context.Context, email string) (*model.StaffUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StaffUser), args.Error(1)
}

func (m *mockStaffUserRepo) FindAll(ctx context.Context, limit, offset int) ([]model.StaffUser, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StaffUser), args.Error(1)
}

func (m *mockStaffUserRepo) SetDeviceKeyHash(ctx context.Context, id string, keyHash string) error {
	args := m.Called(ctx, id, keyHash)
	return args.Error(0)
}

func (m *mockStaffUserRepo) TouchLastConnected(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStaffUserRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStaffUserRepo) WithTx(tx *sqlx.Tx) repository.StaffUserRepository {
	return m
}

type mockDriverRepo struct {
	mock.Mock
}

func (m *mockDriverRepo) FindByID(ctx context.Context, id string) (*model.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *mockDriverRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Driver, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *mockDriverRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Driver, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Driver), args.Error(1)
}

func (m *mockDriverRepo) Upsert(ctx context.Context, params model.UpsertDriverParams) (*model.Driver, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *mockDriverRepo) Update(ctx context.Context, id string, params model.UpdateDriverParams) (*model.Driver, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *mockDriverRepo) SetDeviceKeyHash(ctx context.Context, id string, keyHash string) error {
	args := m.Called(ctx, id, keyHash)
	return args.Error(0)
}

func (m *mockDriverRepo) TouchLastConnected(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDriverRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockDriverRepo) WithTx(tx *sqlx.Tx) repository.DriverRepository {
	return m
}

type mockMobileDeviceRepo struct {
	mock.Mock
}

func (m *mockMobileDeviceRepo) FindByOwner(ctx context.Context, kind model.IdentityKind, ownerID string) ([]model.MobileDevice, error) {
	args := m.Called(ctx, kind, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MobileDevice), args.Error(1)
}

func (m *mockMobileDeviceRepo) Upsert(ctx context.Context, params model.UpsertMobileDeviceParams) (*model.MobileDevice, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MobileDevice), args.Error(1)
}

func (m *mockMobileDeviceRepo) TouchLastActive(ctx context.Context, kind model.IdentityKind, ownerID string) error {
	args := m.Called(ctx, kind, ownerID)
	return args.Error(0)
}

func (m *mockMobileDeviceRepo) WithTx(tx *sqlx.Tx) repository.MobileDeviceRepository {
	return m
}

func newTestPairingService(
	tokenRepo *mockConnectionTokenRepo,
	staffRepo *mockStaffUserRepo,
	driverRepo *mockDriverRepo,
	deviceRepo *mockMobileDeviceRepo,
) *PairingService {
	auth := NewMobileAuthService(staffRepo, driverRepo, deviceRepo, "test-device-key-secret")
	return NewPairingService(nil, tokenRepo, staffRepo, driverRepo, deviceRepo, auth, "https://fleet.example.com")
}

func TestPairingService_IssueToken(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an authenticated admin caller", func(t *testing.T) {
		svc := newTestPairingService(new(mockConnectionTokenRepo), new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		result, err := svc.IssueToken(ctx, "", nil)

		assert.Nil(t, result)
		assert.Equal(t, apperrors.ErrCodeUnauthenticated, apperrors.GetCode(err))
	})

	t.Run("issues an unbound token with QR payload", func(t *testing.T) {
		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("Create", ctx, mock.MatchedBy(func(p model.CreateConnectionTokenParams) bool {
			return p.StaffID == nil && len(p.TokenHash) == 64
		})).Return(&model.ConnectionToken{ID: "tok-1"}, nil)

		svc := newTestPairingService(tokenRepo, new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		result, err := svc.IssueToken(ctx, "admin-1", nil)
		require.NoError(t, err)

		assert.NotEmpty(t, result.Token)
		assert.Contains(t, result.PairingURL, "https://fleet.example.com/mobile/pair?token=")
		assert.Contains(t, result.PairingURL, result.Token)
		assert.True(t, strings.HasPrefix(result.QRImage, "data:image/png;base64,"))
		assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, 5*time.Second)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("binds token to an existing staff user", func(t *testing.T) {
		staffID := "b2f4ae9e-3c55-4a2f-a2dd-2f1f0b6f2a11"

		staffRepo := new(mockStaffUserRepo)
		staffRepo.On("FindByID", ctx, staffID).Return(&model.StaffUser{ID: staffID}, nil)

		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("Create", ctx, mock.MatchedBy(func(p model.CreateConnectionTokenParams) bool {
			return p.StaffID != nil && *p.StaffID == staffID
		})).Return(&model.ConnectionToken{ID: "tok-2", StaffID: &staffID}, nil)

		svc := newTestPairingService(tokenRepo, staffRepo, new(mockDriverRepo), new(mockMobileDeviceRepo))

		result, err := svc.IssueToken(ctx, "admin-1", &staffID)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		staffRepo.AssertExpectations(t)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("rejects binding to unknown staff user", func(t *testing.T) {
		staffID := "b2f4ae9e-3c55-4a2f-a2dd-2f1f0b6f2a11"

		staffRepo := new(mockStaffUserRepo)
		staffRepo.On("FindByID", ctx, staffID).Return(nil, nil)

		svc := newTestPairingService(new(mockConnectionTokenRepo), staffRepo, new(mockDriverRepo), new(mockMobileDeviceRepo))

		result, err := svc.IssueToken(ctx, "admin-1", &staffID)

		assert.Nil(t, result)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("surfaces hash collisions as conflicts", func(t *testing.T) {
		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("Create", ctx, mock.Anything).Return(nil, &pq.Error{Code: "23505"})

		svc := newTestPairingService(tokenRepo, new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		result, err := svc.IssueToken(ctx, "admin-1", nil)

		assert.Nil(t, result)
		assert.Equal(t, apperrors.ErrCodeConflict, apperrors.GetCode(err))
	})

	t.Run("raw token never matches the stored hash", func(t *testing.T) {
		var storedHash string
		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			storedHash = args.Get(1).(model.CreateConnectionTokenParams).TokenHash
		}).Return(&model.ConnectionToken{ID: "tok-3"}, nil)

		svc := newTestPairingService(tokenRepo, new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		result, err := svc.IssueToken(ctx, "admin-1", nil)
		require.NoError(t, err)
		assert.NotEqual(t, result.Token, storedHash)
	})
}

func TestPairingService_ClassifyRedeemFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown hash is token not found", func(t *testing.T) {
		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("FindByTokenHash", ctx, "hash").Return(nil, nil)

		svc := newTestPairingService(tokenRepo, new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		err := svc.classifyRedeemFailure(ctx, "hash")
		assert.Equal(t, apperrors.ErrCodeTokenNotFound, apperrors.GetCode(err))
	})

	t.Run("used token wins over expiry", func(t *testing.T) {
		// A token can be both expired and used; the used classification
		// takes precedence so racing clients see already-used.
		usedAt := time.Now().Add(-time.Minute)
		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("FindByTokenHash", ctx, "hash").Return(&model.ConnectionToken{
			ID:        "tok-1",
			ExpiresAt: time.Now().Add(-2 * time.Hour),
			UsedAt:    &usedAt,
		}, nil)

		svc := newTestPairingService(tokenRepo, new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		err := svc.classifyRedeemFailure(ctx, "hash")
		assert.Equal(t, apperrors.ErrCodeTokenAlreadyUsed, apperrors.GetCode(err))
	})

	t.Run("unused past-expiry token is expired", func(t *testing.T) {
		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("FindByTokenHash", ctx, "hash").Return(&model.ConnectionToken{
			ID:        "tok-1",
			ExpiresAt: time.Now().Add(-time.Minute),
		}, nil)

		svc := newTestPairingService(tokenRepo, new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		err := svc.classifyRedeemFailure(ctx, "hash")
		assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
	})
}

func TestPairingService_RedeemToken_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty token before touching the database", func(t *testing.T) {
		svc := newTestPairingService(new(mockConnectionTokenRepo), new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		result, err := svc.RedeemToken(ctx, "", nil, nil)

		assert.Nil(t, result)
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})
}

func TestPairingService_ListActiveTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("lists by staff identity", func(t *testing.T) {
		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("FindActiveByStaffID", ctx, "staff-1").Return([]model.ConnectionToken{{ID: "tok-1"}}, nil)

		svc := newTestPairingService(tokenRepo, new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		tokens, err := svc.ListActiveTokens(ctx, model.StaffIdentity("staff-1"))
		require.NoError(t, err)
		assert.Len(t, tokens, 1)
	})

	t.Run("lists by driver identity", func(t *testing.T) {
		tokenRepo := new(mockConnectionTokenRepo)
		tokenRepo.On("FindActiveByDriverID", ctx, "driver-1").Return([]model.ConnectionToken{}, nil)

		svc := newTestPairingService(tokenRepo, new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		tokens, err := svc.ListActiveTokens(ctx, model.DriverIdentity("driver-1"))
		require.NoError(t, err)
		assert.Empty(t, tokens)
	})

	t.Run("rejects unknown identity kind", func(t *testing.T) {
		svc := newTestPairingService(new(mockConnectionTokenRepo), new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

		_, err := svc.ListActiveTokens(ctx, model.PairedIdentity{Kind: "robot", ID: "x"})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})
}
