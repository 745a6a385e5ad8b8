package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/vineyard-dashboard/forms"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

// ProfileForm is the subset of the account a user may change about themselves
type ProfileForm struct {
	FirstName string `form:"firstName" validate:"max=60"`
	LastName  string `form:"lastName" validate:"max=60"`
	Phone     string `form:"phone" validate:"omitempty,max=20"`
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		v := s.newView(r, "Profile")
		v.Form = ProfileForm{FirstName: user.FirstName, LastName: user.LastName, Phone: user.Phone}
		v.Data = tokenExpiry(r)
		s.render(w, http.StatusOK, "profile", v)
	}
}

func (s *Server) ProfileUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		var f ProfileForm
		if errs := forms.Bind(r.PostForm, &f); errs.Any() {
			v := s.newView(r, "Profile")
			v.Form = f
			v.Errors = errs
			v.Data = tokenExpiry(r)
			s.render(w, http.StatusUnprocessableEntity, "profile", v)
			return
		}

		patch := users.User{FirstName: f.FirstName, LastName: f.LastName, Phone: f.Phone}
		if _, err := authFrom(r).UpdateProfile(r.Context(), patch); err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}
		redirectSuccess(w, r, RouteProfile)
	}
}

// tokenExpiry is nil when the access token carries no readable exp claim
func tokenExpiry(r *http.Request) *time.Time {
	token, ok := authFrom(r).Token()
	if !ok || token.Expiry.IsZero() {
		return nil
	}
	return &token.Expiry
}

func (s *Server) SettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := api(r).Config.Get(r.Context())
		if err != nil {
			s.failRequest(w, r, err, RouteAdminDashboard)
			return
		}
		v := s.newView(r, "Settings")
		v.Form = forms.ConfigFormFrom(cfg)
		s.render(w, http.StatusOK, "settings", v)
	}
}

func (s *Server) SettingsUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		var f forms.ConfigForm
		if errs := forms.Bind(r.PostForm, &f); errs.Any() {
			v := s.newView(r, "Settings")
			v.Form = f
			v.Errors = errs
			s.render(w, http.StatusUnprocessableEntity, "settings", v)
			return
		}
		if _, err := api(r).Config.Update(r.Context(), f.Config()); err != nil {
			s.failRequest(w, r, err, RouteSettings)
			return
		}
		authFrom(r).Notifications().Success("Settings saved")
		redirectSuccess(w, r, RouteSettings)
	}
}

// HealthHandler reports liveness and the number of live browser sessions
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"sessions": s.sessions.Len(),
		})
	}
}
