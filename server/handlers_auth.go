package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/vineyard-dashboard/forms"
	"github.com/jrsteele09/vineyard-dashboard/session"
	"github.com/jrsteele09/vineyard-dashboard/users"
	"github.com/rs/zerolog/log"
)

// roles offered on the public signup page
var signupRoles = []users.Role{users.RoleCustomer, users.RoleSiteManager, users.RoleWorker, users.RoleServiceCompany}

type loginView struct {
	Email string
	Error string
}

type signupView struct {
	Roles []users.Role
}

func dashboardFor(role users.Role) string {
	return session.DashboardRoute(role)
}

// IndexHandler sends logged in users to their dashboard and everyone else to login
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := currentUser(r); user != nil {
			redirectSuccess(w, r, dashboardFor(user.Role))
			return
		}
		redirectSuccess(w, r, RouteLogin)
	}
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := currentUser(r); user != nil {
			redirectSuccess(w, r, dashboardFor(user.Role))
			return
		}
		s.renderLoginPage(w, r, http.StatusOK, loginView{Email: r.URL.Query().Get("email")})
	}
}

func (s *Server) renderLoginPage(w http.ResponseWriter, r *http.Request, status int, lv loginView) {
	v := s.newView(r, "Sign in")
	v.Form = lv
	s.render(w, status, "login", v)
}

// LoginSubmissionHandler validates the form, logs in against the backend and redirects by role
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var f forms.LoginForm
		if errs := forms.Bind(r.PostForm, &f); errs.Any() {
			v := s.newView(r, "Sign in")
			v.Form = loginView{Email: f.Email}
			v.Errors = errs
			s.render(w, http.StatusUnprocessableEntity, "login", v)
			return
		}

		route, err := authFrom(r).Login(r.Context(), f.Email, f.Password)
		if err != nil {
			log.Info().Err(err).Str("ip", clientIP(r)).Msg("login failed")
			s.renderLoginPage(w, r, http.StatusUnauthorized, loginView{Email: f.Email})
			return
		}
		s.rotateSession(w, r)
		redirectSuccess(w, r, route)
	}
}

// LogoutHandler clears the session's credentials; the browser session itself is kept for the toast
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectSuccess(w, r, authFrom(r).Logout())
	}
}

func (s *Server) SignupPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := s.newView(r, "Create an account")
		v.Form = forms.SignupForm{Role: string(users.RoleCustomer)}
		v.Data = signupView{Roles: signupRoles}
		s.render(w, http.StatusOK, "signup", v)
	}
}

// SignupSubmissionHandler registers against the local account fixtures; admins cannot self register
func (s *Server) SignupSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var f forms.SignupForm
		errs := forms.Bind(r.PostForm, &f)
		if users.Role(f.Role) == users.RoleAdmin {
			if errs == nil {
				errs = forms.FieldErrors{}
			}
			errs["role"] = "Choose a valid role"
		}

		status := http.StatusUnprocessableEntity
		if !errs.Any() {
			route, err := authFrom(r).Signup(r.Context(), f.Session())
			if err == nil {
				redirectSuccess(w, r, route+"?email="+url.QueryEscape(f.Email))
				return
			}
			status = http.StatusConflict
		}

		f.Password, f.ConfirmPassword = "", ""
		v := s.newView(r, "Create an account")
		v.Form = f
		v.Errors = errs
		v.Data = signupView{Roles: signupRoles}
		s.render(w, status, "signup", v)
	}
}
