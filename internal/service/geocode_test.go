package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/redis"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client, err := redis.NewClient("redis://localhost:6379/15")
	if err != nil {
		t.Skip("Redis not available for testing")
	}
	client.FlushDB(context.Background())
	return client
}

func TestGeocodeService_Autocomplete(t *testing.T) {
	cache := setupTestRedis(t)
	defer cache.Close()

	ctx := context.Background()

	var requests atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"display_name": "Gangnam-daero, Seoul", "lat": "37.4979", "lon": "127.0276"},
			{"display_name": "Gangnam Station", "lat": "not-a-number", "lon": "127.0"}
		]`))
	}))
	defer upstream.Close()

	svc := NewGeocodeService(cache, upstream.URL, 5*time.Minute)

	t.Run("rejects queries shorter than 3 characters", func(t *testing.T) {
		_, err := svc.Autocomplete(ctx, "ab")
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))

		_, err = svc.Autocomplete(ctx, "  a  ")
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("returns parsed suggestions, dropping bad coordinates", func(t *testing.T) {
		suggestions, err := svc.Autocomplete(ctx, "gangnam")
		require.NoError(t, err)
		require.Len(t, suggestions, 1)
		assert.Equal(t, "Gangnam-daero, Seoul", suggestions[0].Label)
		assert.InDelta(t, 37.4979, suggestions[0].Lat, 0.0001)
		assert.InDelta(t, 127.0276, suggestions[0].Lon, 0.0001)
	})

	t.Run("serves repeated queries from cache", func(t *testing.T) {
		before := requests.Load()

		_, err := svc.Autocomplete(ctx, "gangnam")
		require.NoError(t, err)
		assert.Equal(t, before, requests.Load())
	})

	t.Run("upstream failure maps to external service error", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer failing.Close()

		failingSvc := NewGeocodeService(cache, failing.URL, 5*time.Minute)

		_, err := failingSvc.Autocomplete(ctx, "somewhere else")
		assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
	})
}
