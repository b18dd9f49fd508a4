package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

const (
	AdminSessionCookie = "admin_session"
	SessionMaxAge      = 24 * time.Hour
)

type contextKey string

const AdminSessionContextKey contextKey = "adminSession"

// GetAdminSession returns the authenticated admin session, or nil. Handlers
// use it to resolve the caller once at the boundary and pass the id down
// explicitly.
func GetAdminSession(ctx context.Context) *model.AdminSession {
	if session, ok := ctx.Value(AdminSessionContextKey).(*model.AdminSession); ok {
		return session
	}
	return nil
}

type AdminSessionMiddleware struct {
	sessionRepo   repository.AdminSessionRepository
	passwordHash  string
	sessionSecret string
}

func NewAdminSessionMiddleware(
	sessionRepo repository.AdminSessionRepository,
	passwordHash, sessionSecret string,
) *AdminSessionMiddleware {
	return &AdminSessionMiddleware{
		sessionRepo:   sessionRepo,
		passwordHash:  passwordHash,
		sessionSecret: sessionSecret,
	}
}

func (m *AdminSessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.passwordHash == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Admin not configured",
			})
			return
		}

		cookie, err := r.Cookie(AdminSessionCookie)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		tokenHash := util.HmacSHA256(m.sessionSecret, cookie.Value)
		session, err := m.sessionRepo.FindByTokenHash(r.Context(), tokenHash)
		if err != nil {
			log.Error().Err(err).Msg("admin session middleware: database error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Session validation failed",
			})
			return
		}

		if session == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		ctx := context.WithValue(r.Context(), AdminSessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SetSessionCookie(w http.ResponseWriter, name, token string, path string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     path,
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   path,
		MaxAge: -1,
	})
}
