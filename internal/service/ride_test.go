package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
)

type mockRideRepo struct {
	mock.Mock
}

func (m *mockRideRepo) FindByID(ctx context.Context, id string) (*model.Ride, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ride), args.Error(1)
}

func (m *mockRideRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Ride, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Ride), args.Error(1)
}

func (m *mockRideRepo) FindAssignedToDriver(ctx context.Context, driverID string) ([]model.Ride, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Ride), args.Error(1)
}

func (m *mockRideRepo) FindUpcoming(ctx context.Context, limit int) ([]model.Ride, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Ride), args.Error(1)
}

func (m *mockRideRepo) Create(ctx context.Context, params model.CreateRideParams) (*model.Ride, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ride), args.Error(1)
}

func (m *mockRideRepo) Update(ctx context.Context, id string, params model.UpdateRideParams) (*model.Ride, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ride), args.Error(1)
}

func (m *mockRideRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockRideRepo) CountByStatus(ctx context.Context, status model.RideStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *mockRideRepo) WithTx(tx *sqlx.Tx) repository.RideRepository {
	return m
}

func TestRideService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("requires passenger name and addresses", func(t *testing.T) {
		svc := NewRideService(new(mockRideRepo), new(mockDriverRepo))

		_, err := svc.Create(ctx, CreateRideInput{})
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))

		_, err = svc.Create(ctx, CreateRideInput{PassengerName: "Kim"})
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("creates a scheduled ride", func(t *testing.T) {
		rideRepo := new(mockRideRepo)
		rideRepo.On("Create", ctx, mock.MatchedBy(func(p model.CreateRideParams) bool {
			return p.ID != "" && p.PassengerName == "Kim"
		})).Return(&model.Ride{ID: "ride-1", Status: model.RideStatusScheduled}, nil)

		svc := NewRideService(rideRepo, new(mockDriverRepo))

		ride, err := svc.Create(ctx, CreateRideInput{
			PassengerName:  "Kim",
			PickupAddress:  "1 Main St",
			DropoffAddress: "2 High St",
			ScheduledAt:    time.Now().Add(2 * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, model.RideStatusScheduled, ride.Status)
		rideRepo.AssertExpectations(t)
	})
}

func TestRideService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := NewRideService(new(mockRideRepo), new(mockDriverRepo))

		bad := model.RideStatus("teleporting")
		_, err := svc.Update(ctx, "ride-1", model.UpdateRideParams{Status: &bad})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("returns not found for missing ride", func(t *testing.T) {
		rideRepo := new(mockRideRepo)
		rideRepo.On("Update", ctx, "ride-1", mock.Anything).Return(nil, nil)

		svc := NewRideService(rideRepo, new(mockDriverRepo))

		_, err := svc.Update(ctx, "ride-1", model.UpdateRideParams{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestRideService_Assign(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns an active driver", func(t *testing.T) {
		driverRepo := new(mockDriverRepo)
		driverRepo.On("FindByID", ctx, "driver-1").Return(&model.Driver{ID: "driver-1"}, nil)

		rideRepo := new(mockRideRepo)
		rideRepo.On("Update", ctx, "ride-1", mock.MatchedBy(func(p model.UpdateRideParams) bool {
			return p.DriverID != nil && *p.DriverID == "driver-1" &&
				p.Status != nil && *p.Status == model.RideStatusAssigned
		})).Return(&model.Ride{ID: "ride-1", Status: model.RideStatusAssigned}, nil)

		svc := NewRideService(rideRepo, driverRepo)

		ride, err := svc.Assign(ctx, "ride-1", "driver-1")
		require.NoError(t, err)
		assert.Equal(t, model.RideStatusAssigned, ride.Status)
	})

	t.Run("refuses a disabled driver", func(t *testing.T) {
		disabledAt := time.Now()
		driverRepo := new(mockDriverRepo)
		driverRepo.On("FindByID", ctx, "driver-1").Return(&model.Driver{
			ID:         "driver-1",
			DisabledAt: &disabledAt,
		}, nil)

		svc := NewRideService(new(mockRideRepo), driverRepo)

		_, err := svc.Assign(ctx, "ride-1", "driver-1")
		assert.Equal(t, apperrors.ErrCodeConflict, apperrors.GetCode(err))
	})

	t.Run("refuses an unknown driver", func(t *testing.T) {
		driverRepo := new(mockDriverRepo)
		driverRepo.On("FindByID", ctx, "ghost").Return(nil, nil)

		svc := NewRideService(new(mockRideRepo), driverRepo)

		_, err := svc.Assign(ctx, "ride-1", "ghost")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestRideService_WorkItems(t *testing.T) {
	ctx := context.Background()

	t.Run("driver sees rides assigned to them", func(t *testing.T) {
		rideRepo := new(mockRideRepo)
		rideRepo.On("FindAssignedToDriver", ctx, "driver-1").Return([]model.Ride{
			{ID: "ride-1", Status: model.RideStatusAssigned},
		}, nil)

		svc := NewRideService(rideRepo, new(mockDriverRepo))

		rides, err := svc.WorkItems(ctx, model.DriverIdentity("driver-1"))
		require.NoError(t, err)
		assert.Len(t, rides, 1)
	})

	t.Run("staff sees the upcoming schedule", func(t *testing.T) {
		rideRepo := new(mockRideRepo)
		rideRepo.On("FindUpcoming", ctx, mobileRideListLimit).Return([]model.Ride{}, nil)

		svc := NewRideService(rideRepo, new(mockDriverRepo))

		_, err := svc.WorkItems(ctx, model.StaffIdentity("staff-1"))
		require.NoError(t, err)
		rideRepo.AssertExpectations(t)
	})

	t.Run("rejects unknown identity kind", func(t *testing.T) {
		svc := NewRideService(new(mockRideRepo), new(mockDriverRepo))

		_, err := svc.WorkItems(ctx, model.PairedIdentity{Kind: "robot", ID: "x"})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})
}
