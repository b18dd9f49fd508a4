package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
)

func newTestMobileAuthService(staffRepo *mockStaffUserRepo, driverRepo *mockDriverRepo, deviceRepo *mockMobileDeviceRepo) *MobileAuthService {
	return NewMobileAuthService(staffRepo, driverRepo, deviceRepo, "test-device-key-secret")
}

func TestMobileAuthService_MintKey(t *testing.T) {
	svc := newTestMobileAuthService(new(mockStaffUserRepo), new(mockDriverRepo), new(mockMobileDeviceRepo))

	t.Run("hash matches HashKey of the raw key", func(t *testing.T) {
		key, keyHash, err := svc.MintKey()
		require.NoError(t, err)
		assert.Equal(t, svc.HashKey(key), keyHash)
		assert.NotEqual(t, key, keyHash)
	})

	t.Run("keys are unique", func(t *testing.T) {
		key1, _, _ := svc.MintKey()
		key2, _, _ := svc.MintKey()
		assert.NotEqual(t, key1, key2)
	})

	t.Run("hash depends on the service secret", func(t *testing.T) {
		other := NewMobileAuthService(nil, nil, nil, "different-secret")
		key, _, _ := svc.MintKey()
		assert.NotEqual(t, svc.HashKey(key), other.HashKey(key))
	})
}

func TestMobileAuthService_Authorize(t *testing.T) {
	ctx := context.Background()

	setupDriver := func(t *testing.T) (*MobileAuthService, *mockDriverRepo, *mockMobileDeviceRepo, string) {
		t.Helper()
		driverRepo := new(mockDriverRepo)
		deviceRepo := new(mockMobileDeviceRepo)
		svc := newTestMobileAuthService(new(mockStaffUserRepo), driverRepo, deviceRepo)

		key, keyHash, err := svc.MintKey()
		require.NoError(t, err)
		driverRepo.On("FindByID", ctx, "driver-1").Return(&model.Driver{
			ID:            "driver-1",
			DeviceKeyHash: &keyHash,
		}, nil)
		return svc, driverRepo, deviceRepo, key
	}

	t.Run("accepts the exact minted key", func(t *testing.T) {
		svc, driverRepo, deviceRepo, key := setupDriver(t)
		deviceRepo.On("TouchLastActive", ctx, model.IdentityKindDriver, "driver-1").Return(nil)
		driverRepo.On("TouchLastConnected", ctx, "driver-1").Return(nil)

		err := svc.Authorize(ctx, model.DriverIdentity("driver-1"), key)
		assert.NoError(t, err)
		deviceRepo.AssertExpectations(t)
		driverRepo.AssertExpectations(t)
	})

	t.Run("rejects a single character mutation", func(t *testing.T) {
		svc, _, _, key := setupDriver(t)

		mutated := []byte(key)
		if mutated[0] == 'A' {
			mutated[0] = 'B'
		} else {
			mutated[0] = 'A'
		}

		err := svc.Authorize(ctx, model.DriverIdentity("driver-1"), string(mutated))
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("rejects a truncated key", func(t *testing.T) {
		svc, _, _, key := setupDriver(t)

		err := svc.Authorize(ctx, model.DriverIdentity("driver-1"), key[:len(key)-1])
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("rejects an empty key", func(t *testing.T) {
		svc, _, _, _ := setupDriver(t)

		err := svc.Authorize(ctx, model.DriverIdentity("driver-1"), "")
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("unknown identity gets the same rejection as a wrong key", func(t *testing.T) {
		driverRepo := new(mockDriverRepo)
		driverRepo.On("FindByID", ctx, "ghost").Return(nil, nil)
		svc := newTestMobileAuthService(new(mockStaffUserRepo), driverRepo, new(mockMobileDeviceRepo))

		errUnknown := svc.Authorize(ctx, model.DriverIdentity("ghost"), "some-key")

		svcKnown, _, _, _ := setupDriver(t)
		errWrongKey := svcKnown.Authorize(ctx, model.DriverIdentity("driver-1"), "some-key")

		appUnknown, _ := apperrors.AsAppError(errUnknown)
		appWrongKey, _ := apperrors.AsAppError(errWrongKey)
		assert.Equal(t, appWrongKey.Code, appUnknown.Code)
		assert.Equal(t, appWrongKey.Message, appUnknown.Message)
	})

	t.Run("rejects a disabled driver even with the right key", func(t *testing.T) {
		driverRepo := new(mockDriverRepo)
		deviceRepo := new(mockMobileDeviceRepo)
		svc := newTestMobileAuthService(new(mockStaffUserRepo), driverRepo, deviceRepo)

		key, keyHash, err := svc.MintKey()
		require.NoError(t, err)
		disabledAt := time.Now()
		driverRepo.On("FindByID", ctx, "driver-1").Return(&model.Driver{
			ID:            "driver-1",
			DeviceKeyHash: &keyHash,
			DisabledAt:    &disabledAt,
		}, nil)

		authErr := svc.Authorize(ctx, model.DriverIdentity("driver-1"), key)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(authErr))
	})

	t.Run("rejects a key minted for a different identity", func(t *testing.T) {
		driverRepo := new(mockDriverRepo)
		staffRepo := new(mockStaffUserRepo)
		svc := newTestMobileAuthService(staffRepo, driverRepo, new(mockMobileDeviceRepo))

		driverKey, driverKeyHash, _ := svc.MintKey()
		_, staffKeyHash, _ := svc.MintKey()
		driverRepo.On("FindByID", ctx, "driver-1").Return(&model.Driver{
			ID:            "driver-1",
			DeviceKeyHash: &driverKeyHash,
		}, nil)
		staffRepo.On("FindByID", ctx, "staff-1").Return(&model.StaffUser{
			ID:            "staff-1",
			DeviceKeyHash: &staffKeyHash,
		}, nil)

		err := svc.Authorize(ctx, model.StaffIdentity("staff-1"), driverKey)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("rejects identity that never paired", func(t *testing.T) {
		staffRepo := new(mockStaffUserRepo)
		staffRepo.On("FindByID", ctx, "staff-1").Return(&model.StaffUser{ID: "staff-1"}, nil)
		svc := newTestMobileAuthService(staffRepo, new(mockDriverRepo), new(mockMobileDeviceRepo))

		err := svc.Authorize(ctx, model.StaffIdentity("staff-1"), "anything")
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("succeeds even if last connected refresh fails", func(t *testing.T) {
		svc, driverRepo, deviceRepo, key := setupDriver(t)
		deviceRepo.On("TouchLastActive", ctx, model.IdentityKindDriver, "driver-1").Return(assert.AnError)
		_ = driverRepo

		err := svc.Authorize(ctx, model.DriverIdentity("driver-1"), key)
		assert.NoError(t, err)
	})
}
