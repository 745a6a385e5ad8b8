package backendfake_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/vineyard-dashboard/apiclient"
	"github.com/jrsteele09/vineyard-dashboard/internal/backendfake"
	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/storage"
	"github.com/jrsteele09/vineyard-dashboard/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func setupBackend(t *testing.T) (*backendfake.Backend, *resources.API, *apiclient.StorageTokens) {
	t.Helper()

	backend := backendfake.New()
	backend.SeedDemo()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	tokens := apiclient.NewStorageTokens(storage.NewMemory())
	client := apiclient.New(server.URL, tokens,
		apiclient.WithHTTPClient(server.Client()),
		apiclient.WithTimeout(5*time.Second),
		apiclient.WithRefreshPath(backendfake.RefreshPath),
	)
	return backend, resources.New(client), tokens
}

func login(t *testing.T, api *resources.API, tokens *apiclient.StorageTokens, email string) resources.LoginResult {
	t.Helper()
	res, err := api.Auth.Login(context.Background(), email, backendfake.DemoPassword)
	require.NoError(t, err)
	tokens.SetToken(&oauth2.Token{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
	return res
}

func TestBackend_Login(t *testing.T) {
	_, api, _ := setupBackend(t)

	res, err := api.Auth.Login(context.Background(), "CUSTOMER@vineyard.test", backendfake.DemoPassword)
	require.NoError(t, err)
	require.Equal(t, users.RoleCustomer, res.User.Role)
	require.WithinDuration(t, time.Now().Add(backendfake.AccessTokenTTL), apiclient.AccessTokenExpiry(res.AccessToken), time.Minute)
	require.NotEmpty(t, res.RefreshToken)

	_, err = api.Auth.Login(context.Background(), "customer@vineyard.test", "wrong-password")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Equal(t, "Invalid email or password", apiclient.MessageFrom(err, ""))
}

func TestBackend_RequiresAccessToken(t *testing.T) {
	_, api, _ := setupBackend(t)

	_, err := api.Sites.List(context.Background(), resources.SiteFilter{})
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
}

func TestBackend_RejectsForgedAccessToken(t *testing.T) {
	backend := backendfake.New()
	backend.SeedDemo()

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "anyone", "role": "admin", "jti": "guess", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("not-the-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/site", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	backend.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "jwt expired")
}

func TestBackend_ExpiredTokenIsRefreshedTransparently(t *testing.T) {
	backend, api, tokens := setupBackend(t)
	first := login(t, api, tokens, "admin@vineyard.test")

	backend.ExpireAccessTokens()

	sites, err := api.Sites.List(context.Background(), resources.SiteFilter{})
	require.NoError(t, err)
	require.Len(t, sites, 1)
	require.Equal(t, 1, backend.CountRequests("POST", backendfake.RefreshPath))

	tok, ok := tokens.Token()
	require.True(t, ok)
	require.NotEqual(t, first.AccessToken, tok.AccessToken)
	require.NotEqual(t, first.RefreshToken, tok.RefreshToken, "refresh tokens rotate")
}

func TestBackend_FailRefresh(t *testing.T) {
	backend, api, tokens := setupBackend(t)
	login(t, api, tokens, "admin@vineyard.test")

	backend.ExpireAccessTokens()
	backend.FailRefresh(true)

	_, err := api.Blocks.List(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
}

func TestBackend_CRUD(t *testing.T) {
	_, api, tokens := setupBackend(t)
	login(t, api, tokens, "admin@vineyard.test")
	ctx := context.Background()

	site, err := api.Sites.Create(ctx, resources.Site{Name: "Creekside", Address: "1 Creek Rd", CustomerID: "c-9"})
	require.NoError(t, err)
	require.NotEmpty(t, site.ID)

	site, err = api.Sites.Update(ctx, site.ID, resources.Site{Notes: "frost prone"})
	require.NoError(t, err)
	require.Equal(t, "Creekside", site.Name, "PATCH keeps unspecified fields")
	require.Equal(t, "frost prone", site.Notes)
	require.WithinDuration(t, time.Now(), site.CreatedAt, time.Minute, "creation time survives create and PATCH")

	filtered, err := api.Sites.List(ctx, resources.SiteFilter{CustomerID: "c-9"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	require.NoError(t, api.Sites.Delete(ctx, site.ID))
	_, err = api.Sites.Get(ctx, site.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBackend_TaskStatusReplace(t *testing.T) {
	_, api, tokens := setupBackend(t)
	login(t, api, tokens, "worker@vineyard.test")
	ctx := context.Background()

	list, err := api.Tasks.List(ctx, resources.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	task := list[0]
	task.Status = resources.TaskDone
	updated, err := api.Tasks.Update(ctx, task.ID, task)
	require.NoError(t, err)
	require.Equal(t, resources.TaskDone, updated.Status)
	require.Equal(t, task.WorkOrderID, updated.WorkOrderID)
}

func TestBackend_AccountsAndConfig(t *testing.T) {
	_, api, tokens := setupBackend(t)
	login(t, api, tokens, "admin@vineyard.test")
	ctx := context.Background()

	workers, err := api.Auth.ListAccounts(ctx, users.RoleWorker)
	require.NoError(t, err)
	require.Len(t, workers, 1)

	created, err := api.Auth.Signup(ctx, resources.SignupRequest{
		User:     users.User{Email: "new@vineyard.test", Role: users.RoleWorker},
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = api.Auth.Signup(ctx, resources.SignupRequest{User: users.User{Email: "new@vineyard.test"}, Password: "secret123"})
	require.ErrorIs(t, err, apperrors.ErrBackend)

	cfg, err := api.Config.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Vineyard Services", cfg.CompanyName)

	cfg.CompanyName = "Valley Vines"
	cfg, err = api.Config.Update(ctx, cfg)
	require.NoError(t, err)
	require.Equal(t, "Valley Vines", cfg.CompanyName)

	url, err := api.Images.Upload(ctx, "Vines.JPG", strings.NewReader("jpeg"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/images/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))
}
