package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/vineyard-dashboard/apiclient"
	"github.com/jrsteele09/vineyard-dashboard/internal/backendfake"
	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/notify"
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/session"
	"github.com/jrsteele09/vineyard-dashboard/storage"
	"github.com/jrsteele09/vineyard-dashboard/users"
	fakeuserrepo "github.com/jrsteele09/vineyard-dashboard/users/repofake"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T, handler http.Handler) (*session.AuthContext, *storage.Memory) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	kv := storage.NewMemory()
	auth := session.NewAuthContext(kv, session.Deps{
		BaseURL: server.URL,
		ClientOptions: []apiclient.ClientOption{
			apiclient.WithHTTPClient(server.Client()),
			apiclient.WithTimeout(5 * time.Second),
			apiclient.WithRefreshPath(backendfake.RefreshPath),
		},
		Signups: fakeuserrepo.NewFakeUserRepo(),
	})
	return auth, kv
}

func TestAuthContext_LoginStoresSessionAndRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"metaData":{"user":{"role":"customer","firstName":"Cora"},"access_token":"T1"}}`))
	})
	auth, kv := newAuth(t, mux)
	require.True(t, auth.Loading())
	auth.Init()
	require.False(t, auth.Loading())

	route, err := auth.Login(context.Background(), "customer@vineyard.test", "secret123")
	require.NoError(t, err)
	require.Equal(t, "/customer/dashboard", route)

	access, ok := kv.Get(storage.KeyAccessToken)
	require.True(t, ok)
	require.Equal(t, "T1", access)

	user := auth.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, users.RoleCustomer, user.Role)

	toasts := auth.Toasts()
	require.Len(t, toasts, 1)
	require.Equal(t, notify.KindSuccess, toasts[0].Kind)
	require.Equal(t, "Welcome back, Cora", toasts[0].Message)
}

func TestAuthContext_LoginUnknownRoleUsesFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"metaData":{"user":{"role":"auditor"},"access_token":"T1"}}`))
	})
	auth, _ := newAuth(t, mux)

	route, err := auth.Login(context.Background(), "x@vineyard.test", "secret123")
	require.NoError(t, err)
	require.Equal(t, session.RouteFallback, route)
}

func TestAuthContext_LoginFailureLeavesSessionUnchanged(t *testing.T) {
	backend := backendfake.New()
	backend.SeedDemo()
	auth, kv := newAuth(t, backend)
	auth.Init()

	route, err := auth.Login(context.Background(), "admin@vineyard.test", "wrong")
	require.Error(t, err)
	require.Empty(t, route)
	require.Nil(t, auth.CurrentUser())

	_, ok := kv.Get(storage.KeyAccessToken)
	require.False(t, ok)
	require.Zero(t, backend.CountRequests(http.MethodPost, backendfake.RefreshPath))

	toasts := auth.Toasts()
	require.Len(t, toasts, 1)
	require.Equal(t, notify.KindError, toasts[0].Kind)
	require.Equal(t, "Invalid email or password", toasts[0].Message)
}

func TestAuthContext_LogoutClearsCredentials(t *testing.T) {
	backend := backendfake.New()
	backend.SeedDemo()
	auth, kv := newAuth(t, backend)
	auth.Init()

	_, err := auth.Login(context.Background(), "admin@vineyard.test", backendfake.DemoPassword)
	require.NoError(t, err)
	_, err = auth.API().Sites.List(context.Background(), resources.SiteFilter{})
	require.NoError(t, err)

	require.Equal(t, session.RouteLogin, auth.Logout())
	require.Nil(t, auth.CurrentUser())
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeySessionUser} {
		_, ok := kv.Get(key)
		require.False(t, ok, key)
	}

	_, err = auth.API().Sites.List(context.Background(), resources.SiteFilter{})
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)

	requests := backend.Requests()
	last := requests[len(requests)-1]
	require.Equal(t, "/site", last.Path)
	require.Empty(t, last.Authorization)
}

func TestAuthContext_InitRestoresUser(t *testing.T) {
	kv := storage.NewMemory()
	kv.Set(storage.KeySessionUser, `{"_id":"u1","role":"worker","email":"w@vineyard.test"}`)
	kv.Set(storage.KeyAccessToken, "T1")

	auth := session.NewAuthContext(kv, session.Deps{BaseURL: "http://127.0.0.1:0"})
	auth.Init()

	user := auth.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, users.RoleWorker, user.Role)

	token, ok := auth.Token()
	require.True(t, ok)
	require.Equal(t, "T1", token.AccessToken)
}

func TestAuthContext_InitDiscardsCorruptUser(t *testing.T) {
	kv := storage.NewMemory()
	kv.Set(storage.KeySessionUser, `{not json`)

	auth := session.NewAuthContext(kv, session.Deps{BaseURL: "http://127.0.0.1:0"})
	auth.Init()

	require.Nil(t, auth.CurrentUser())
	_, ok := kv.Get(storage.KeySessionUser)
	require.False(t, ok)
}

func TestAuthContext_Signup(t *testing.T) {
	auth, _ := newAuth(t, http.NotFoundHandler())
	form := session.SignupForm{FirstName: "Nell", Email: "nell@vineyard.test", Password: "secret123", Role: users.RoleCustomer}

	route, err := auth.Signup(context.Background(), form)
	require.NoError(t, err)
	require.Equal(t, session.RouteLogin, route)
	require.Equal(t, notify.KindSuccess, auth.Toasts()[0].Kind)

	_, err = auth.Signup(context.Background(), form)
	require.ErrorIs(t, err, apperrors.ErrEmailTaken)
	toasts := auth.Toasts()
	require.Len(t, toasts, 1)
	require.Equal(t, "An account with that email already exists", toasts[0].Message)
}

func TestDashboardRoute(t *testing.T) {
	for _, role := range users.All() {
		require.NotEqual(t, session.RouteFallback, session.DashboardRoute(role), role)
	}
	require.Equal(t, "/site-manager/dashboard", session.DashboardRoute(users.RoleSiteManager))
	require.Equal(t, session.RouteFallback, session.DashboardRoute(users.Role("")))
}

func TestAuthContext_UpdateProfile(t *testing.T) {
	backend := backendfake.New()
	backend.SeedDemo()
	auth, kv := newAuth(t, backend)
	auth.Init()

	_, err := auth.UpdateProfile(context.Background(), users.User{Phone: "0400 000 000"})
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	_, err = auth.Login(context.Background(), "worker@vineyard.test", backendfake.DemoPassword)
	require.NoError(t, err)
	auth.Toasts()

	updated, err := auth.UpdateProfile(context.Background(), users.User{Phone: "0400 000 000", Role: users.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, "0400 000 000", updated.Phone)
	require.Equal(t, users.RoleWorker, updated.Role)

	raw, ok := kv.Get(storage.KeySessionUser)
	require.True(t, ok)
	require.Contains(t, raw, "0400 000 000")
}
