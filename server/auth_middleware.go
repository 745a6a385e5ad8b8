package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/vineyard-dashboard/guard"
	"github.com/jrsteele09/vineyard-dashboard/session"
	"github.com/jrsteele09/vineyard-dashboard/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the request's *session.AuthContext
	ContextKeySession ContextKey = "session"
	// ContextKeySessionID stores the browser session ID the AuthContext is registered under
	ContextKeySessionID ContextKey = "sessionID"

	sessionCookieName = "vineyard_session"
)

// SessionMiddleware attaches the browser's AuthContext, starting a new session when the
// cookie is missing, unknown or expired.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			id   string
			auth *session.AuthContext
		)
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			auth, err = s.sessions.Get(cookie.Value)
			if err != nil {
				log.Debug().Err(err).Msg("starting a new browser session")
			} else {
				id = cookie.Value
			}
		}
		if auth == nil {
			id, auth = s.sessions.Create()
			s.SetSessionCookie(w, r, id)
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, auth)
		ctx = context.WithValue(ctx, ContextKeySessionID, id)
		next(w, r.WithContext(ctx))
	}
}

// RequireRoles applies the route guard for the allowed roles
func (s *Server) RequireRoles(allowed ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var state guard.State
			if auth := authFrom(r); auth != nil {
				state = auth
			}
			decision := guard.Decide(state, allowed...)

			switch decision.Outcome {
			case guard.Loading:
				s.renderLoading(w, r)
			case guard.Redirect:
				redirectSuccess(w, r, decision.Path)
			default:
				next(w, r)
			}
		}
	}
}

// authFrom returns the request's session, or nil outside SessionMiddleware
func authFrom(r *http.Request) *session.AuthContext {
	auth, _ := r.Context().Value(ContextKeySession).(*session.AuthContext)
	return auth
}

func sessionIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ContextKeySessionID).(string)
	return id
}

// rotateSession reissues the browser's session ID, keeping its state
func (s *Server) rotateSession(w http.ResponseWriter, r *http.Request) {
	newID, err := s.sessions.Rotate(sessionIDFrom(r))
	if err != nil {
		log.Warn().Err(err).Msg("session ID not rotated")
		return
	}
	s.SetSessionCookie(w, r, newID)
}

// currentUser is only valid behind RequireRoles
func currentUser(r *http.Request) *users.User {
	if auth := authFrom(r); auth != nil {
		return auth.CurrentUser()
	}
	return nil
}

func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetMaxSessionAge().Seconds()),
	})
}

// redirectSuccess is htmx aware: htmx requests get an HX-Redirect instead of a 303
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
