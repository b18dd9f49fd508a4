package middleware

import (
	"context"
	"net/http"

	"github.com/ridefleet/fleet-admin-go/internal/audit"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/service"
)

const (
	IdentityKindHeader = "X-Identity-Kind"
	IdentityIDHeader   = "X-Identity-Id"
	DeviceKeyHeader    = "X-Device-Key"
)

const DeviceIdentityContextKey contextKey = "deviceIdentity"

// GetDeviceIdentity returns the authorized mobile identity, or nil.
func GetDeviceIdentity(ctx context.Context) *model.PairedIdentity {
	if identity, ok := ctx.Value(DeviceIdentityContextKey).(*model.PairedIdentity); ok {
		return identity
	}
	return nil
}

// DeviceAuthMiddleware gates the unauthenticated mobile endpoints behind the
// identity + device-key pair minted at redemption. Every rejection looks the
// same to the caller regardless of cause.
type DeviceAuthMiddleware struct {
	auth *service.MobileAuthService
}

func NewDeviceAuthMiddleware(auth *service.MobileAuthService) *DeviceAuthMiddleware {
	return &DeviceAuthMiddleware{auth: auth}
}

func (m *DeviceAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind, err := model.ParseIdentityKind(r.Header.Get(IdentityKindHeader))
		identityID := r.Header.Get(IdentityIDHeader)
		deviceKey := r.Header.Get(DeviceKeyHeader)

		if err != nil || identityID == "" || deviceKey == "" {
			m.reject(w, r, "")
			return
		}

		identity := model.PairedIdentity{Kind: kind, ID: identityID}
		if err := m.auth.Authorize(r.Context(), identity, deviceKey); err != nil {
			m.reject(w, r, identityID)
			return
		}

		ctx := context.WithValue(r.Context(), DeviceIdentityContextKey, &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *DeviceAuthMiddleware) reject(w http.ResponseWriter, r *http.Request, identityID string) {
	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventDeviceAuthFailure,
		IdentityID: identityID,
	})
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error": "Unauthorized",
	})
}
