package http

import (
	"context"
	"net/http"
	"time"

	"doorcars-storefront/internal/config"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/service"

	"github.com/gorilla/mux"
)

type sessionKey struct{}

// SessionIDFromContext returns the session id the middleware put on the
// request, or "" for anonymous requests.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// SessionMiddleware resolves the session cookie according to the security
// level of the matched route.
type SessionMiddleware struct {
	sessions   service.SessionService
	cookieName string
}

func NewSessionMiddleware(sessions service.SessionService, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)

		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		sessionID := ""
		if c, err := r.Cookie(m.cookieName); err == nil {
			sessionID = c.Value
		}

		if level == config.SecuritySession {
			if sessionID == "" {
				writeError(w, http.StatusUnauthorized, service.MsgSignIn)
				return
			}
			if _, err := m.sessions.Get(r.Context(), sessionID); err != nil {
				logger.Debug("Rejected session", "route", name, "error", err)
				clearSessionCookie(w, m.cookieName)
				writeServiceError(w, err)
				return
			}
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logger.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", p)
				writeError(rec, http.StatusInternalServerError, "Something went wrong, please try again")
			}
			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}

func setSessionCookie(w http.ResponseWriter, name, value string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
