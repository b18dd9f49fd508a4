package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ridefleet/fleet-admin-go/internal/config"
	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/redis"
)

const geocodeResultLimit = 5

// AddressSuggestion is one autocomplete candidate for a partial address.
type AddressSuggestion struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// GeocodeService proxies address autocomplete to a Nominatim-compatible
// geocoding API, caching responses in Redis.
type GeocodeService struct {
	client   *http.Client
	cache    *redis.Client
	baseURL  string
	cacheTTL time.Duration
}

func NewGeocodeService(cache *redis.Client, baseURL string, cacheTTL time.Duration) *GeocodeService {
	return &GeocodeService{
		client: &http.Client{
			Timeout: config.GeocodeRequestTimeout,
		},
		cache:    cache,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		cacheTTL: cacheTTL,
	}
}

func (s *GeocodeService) Autocomplete(ctx context.Context, query string) ([]AddressSuggestion, error) {
	query = strings.TrimSpace(query)
	if len(query) < 3 {
		return nil, apperrors.InvalidInput("q", "must be at least 3 characters")
	}

	cacheKey := redis.GeocodeCacheKey(strings.ToLower(query))
	if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
		var suggestions []AddressSuggestion
		if err := json.Unmarshal([]byte(cached), &suggestions); err == nil {
			return suggestions, nil
		}
	} else if err != goredis.Nil {
		log.Warn().Err(err).Msg("geocode cache read failed")
	}

	suggestions, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(suggestions); err == nil {
		if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
			log.Warn().Err(err).Msg("geocode cache write failed")
		}
	}

	return suggestions, nil
}

func (s *GeocodeService) search(ctx context.Context, query string) ([]AddressSuggestion, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(geocodeResultLimit))

	reqURL := fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.Internal("Failed to build geocode request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("geocode request error")
		return nil, apperrors.External("geocoding", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("geocode request failed")
		return nil, apperrors.External("geocoding", fmt.Errorf("status %d", resp.StatusCode))
	}

	var results []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, apperrors.External("geocoding", err)
	}

	suggestions := make([]AddressSuggestion, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		suggestions = append(suggestions, AddressSuggestion{
			Label: r.DisplayName,
			Lat:   lat,
			Lon:   lon,
		})
	}

	return suggestions, nil
}
