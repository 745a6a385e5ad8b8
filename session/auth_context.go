// Package session owns the per-browser Session: the token pair, the cached user
// and the API client bound to them.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jrsteele09/vineyard-dashboard/apiclient"
	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/internal/metrics"
	"github.com/jrsteele09/vineyard-dashboard/notify"
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/storage"
	"github.com/jrsteele09/vineyard-dashboard/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	RouteLogin    = "/login"
	RouteFallback = "/"

	msgLoginFailed = "Login failed, please try again"
)

// DashboardRoutes is the fixed role to landing page table
var DashboardRoutes = map[users.Role]string{
	users.RoleAdmin:          "/admin/dashboard",
	users.RoleCustomer:       "/customer/dashboard",
	users.RoleSiteManager:    "/site-manager/dashboard",
	users.RoleWorker:         "/worker/dashboard",
	users.RoleServiceCompany: "/service-company/dashboard",
}

// DashboardRoute returns the landing page for role, or the fallback route for unknown roles
func DashboardRoute(role users.Role) string {
	if route, ok := DashboardRoutes[role]; ok {
		return route
	}
	return RouteFallback
}

// SignupForm is what the simulated signup accepts
type SignupForm struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Phone       string
	Role        users.Role
	CompanyName string
}

// AuthContext holds one browser session. It is created by the Registry and handed to
// handlers explicitly; nothing here is global.
type AuthContext struct {
	kv      storage.KV
	tokens  *apiclient.StorageTokens
	client  *apiclient.Client
	api     *resources.API
	toasts  *notify.Queue
	signups users.Repo
	metrics metrics.Recorder

	mu      sync.RWMutex
	user    *users.User
	loading bool
}

// Deps are the collaborators shared by every session
type Deps struct {
	BaseURL       string
	ClientOptions []apiclient.ClientOption
	Signups       users.Repo
	Metrics       metrics.Recorder
}

// NewAuthContext creates a session over kv. It stays in the loading state until Init.
func NewAuthContext(kv storage.KV, deps Deps) *AuthContext {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}
	toasts := notify.NewQueue()
	tokens := apiclient.NewStorageTokens(kv)

	opts := append([]apiclient.ClientOption{}, deps.ClientOptions...)
	opts = append(opts, apiclient.WithNotifier(toasts), apiclient.WithMetrics(deps.Metrics))
	client := apiclient.New(deps.BaseURL, tokens, opts...)

	return &AuthContext{
		kv:      kv,
		tokens:  tokens,
		client:  client,
		api:     resources.New(client),
		toasts:  toasts,
		signups: deps.Signups,
		metrics: deps.Metrics,
		loading: true,
	}
}

// Init hydrates the cached user from storage and leaves the loading state
func (a *AuthContext) Init() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loading = false
	raw, ok := a.kv.Get(storage.KeySessionUser)
	if !ok || raw == "" {
		return
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable session user")
		a.kv.Remove(storage.KeySessionUser)
		return
	}
	a.user = &u
}

func (a *AuthContext) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

// CurrentUser returns a copy of the cached user, or nil when logged out
func (a *AuthContext) CurrentUser() *users.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

// Token returns the stored token pair, if any
func (a *AuthContext) Token() (*oauth2.Token, bool) {
	return a.tokens.Token()
}

// API exposes the resource modules bound to this session's client
func (a *AuthContext) API() *resources.API {
	return a.api
}

// Toasts drains the pending notifications
func (a *AuthContext) Toasts() []notify.Toast {
	return a.toasts.Drain()
}

func (a *AuthContext) Notifications() *notify.Queue {
	return a.toasts
}

// Login authenticates against the backend, stores the session and returns the role's landing page.
// On failure no redirect is returned and the session is unchanged.
func (a *AuthContext) Login(ctx context.Context, email, password string) (string, error) {
	res, err := a.api.Auth.Login(ctx, email, password)
	if err != nil {
		a.metrics.RecordLogin(false)
		a.toasts.Error(apiclient.MessageFrom(err, msgLoginFailed))
		return "", apperrors.Wrapf(err, "[AuthContext Login] %s", email)
	}
	if res.AccessToken == "" {
		a.metrics.RecordLogin(false)
		a.toasts.Error(msgLoginFailed)
		return "", apperrors.Wrapf(apperrors.ErrInvalidCredentials, "[AuthContext Login] no access token for %s", email)
	}

	userJSON, err := json.Marshal(res.User)
	if err != nil {
		return "", apperrors.Wrapf(err, "[AuthContext Login] encode user")
	}

	a.mu.Lock()
	a.tokens.SetToken(&oauth2.Token{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
	a.kv.Set(storage.KeySessionUser, string(userJSON))
	u := res.User
	a.user = &u
	a.loading = false
	a.mu.Unlock()

	a.metrics.RecordLogin(true)
	a.toasts.Success("Welcome back, " + u.DisplayName())
	log.Info().Str("user_id", u.ID).Str("role", u.Role.String()).Msg("user logged in")

	if !u.Role.Valid() {
		log.Warn().Str("role", u.Role.String()).Msg("unrecognised role, using fallback route")
	}
	return DashboardRoute(u.Role), nil
}

// Logout clears the persisted session and the in-memory user, and returns the login route.
// Local clearing cannot fail.
func (a *AuthContext) Logout() string {
	a.mu.Lock()
	a.tokens.ClearToken()
	a.kv.Clear()
	a.user = nil
	a.mu.Unlock()

	a.toasts.Info("You have been logged out")
	return RouteLogin
}

// Signup registers against the in-memory fixture list only; the backend signup endpoint is not called.
func (a *AuthContext) Signup(_ context.Context, form SignupForm) (string, error) {
	if a.signups == nil {
		return "", apperrors.Wrapf(apperrors.ErrBackend, "[AuthContext Signup] signup is not available")
	}
	u := &users.User{
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		Email:       form.Email,
		Phone:       form.Phone,
		Role:        form.Role,
		CompanyName: form.CompanyName,
	}
	if err := a.signups.Register(u, form.Password); err != nil {
		if apperrors.Is(err, apperrors.ErrEmailTaken) {
			a.toasts.Error("An account with that email already exists")
		} else {
			a.toasts.Error("Sign up failed, please try again")
		}
		return "", apperrors.Wrapf(err, "[AuthContext Signup] %s", form.Email)
	}
	a.toasts.Success("Account created, please log in")
	return RouteLogin, nil
}

// UpdateProfile patches the logged in user's own account and refreshes the cached copy.
// The role is never changed from here.
func (a *AuthContext) UpdateProfile(ctx context.Context, patch users.User) (*users.User, error) {
	current := a.CurrentUser()
	if current == nil {
		return nil, apperrors.Wrapf(apperrors.ErrSessionNotFound, "[AuthContext UpdateProfile] not logged in")
	}
	patch.ID = ""
	patch.Role = ""

	updated, err := a.api.Auth.UpdateAccount(ctx, current.ID, patch)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[AuthContext UpdateProfile] %s", current.ID)
	}
	updated.Role = current.Role

	userJSON, err := json.Marshal(updated)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[AuthContext UpdateProfile] encode user")
	}

	a.mu.Lock()
	a.kv.Set(storage.KeySessionUser, string(userJSON))
	a.user = &updated
	a.mu.Unlock()

	a.toasts.Success("Profile updated")
	return a.CurrentUser(), nil
}
