package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/vineyard-dashboard/apiclient"
	"github.com/jrsteele09/vineyard-dashboard/internal/backendfake"
	"github.com/jrsteele09/vineyard-dashboard/internal/config"
	"github.com/jrsteele09/vineyard-dashboard/server"
	"github.com/jrsteele09/vineyard-dashboard/session"
	"github.com/jrsteele09/vineyard-dashboard/users"
	fakeuserrepo "github.com/jrsteele09/vineyard-dashboard/users/repofake"
	"github.com/stretchr/testify/require"
)

type harness struct {
	backend *backendfake.Backend
	baseURL string
	client  *http.Client
}

func setupServer(t *testing.T) *harness {
	t.Helper()
	t.Setenv("ENV", "TEST")
	if _, set := os.LookupEnv("LOGIN_RATE_PER_MINUTE"); !set {
		t.Setenv("LOGIN_RATE_PER_MINUTE", "100")
	}

	backend := backendfake.New()
	backend.SeedDemo()
	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	sessions := session.NewRegistry(session.Deps{
		BaseURL: api.URL,
		ClientOptions: []apiclient.ClientOption{
			apiclient.WithHTTPClient(api.Client()),
			apiclient.WithTimeout(5 * time.Second),
			apiclient.WithRefreshPath(backendfake.RefreshPath),
		},
		Signups: fakeuserrepo.NewFakeUserRepo(),
	}, time.Hour)

	srv, err := server.New(config.New(), sessions)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &harness{backend: backend, baseURL: ts.URL, client: newBrowser(t)}
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Get(h.baseURL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.PostForm(h.baseURL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (h *harness) login(t *testing.T, email string) string {
	t.Helper()
	resp, _ := h.post(t, "/auth/login", url.Values{"email": {email}, "password": {backendfake.DemoPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	return resp.Header.Get("Location")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestServer_LoginRedirectsToRoleDashboard(t *testing.T) {
	h := setupServer(t)

	require.Equal(t, "/customer/dashboard", h.login(t, "customer@vineyard.test"))

	resp, body := h.get(t, "/customer/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "My vineyards")
	require.Contains(t, body, "Welcome back, Cora Grower")
	require.Contains(t, body, "Hillside North")

	// toasts are shown once
	_, body = h.get(t, "/customer/dashboard")
	require.NotContains(t, body, "Welcome back")
}

func TestServer_EveryRoleLandsOnItsDashboard(t *testing.T) {
	tests := map[string]string{
		"admin@vineyard.test":      "/admin/dashboard",
		"manager@vineyard.test":    "/site-manager/dashboard",
		"worker@vineyard.test":     "/worker/dashboard",
		"contractor@vineyard.test": "/service-company/dashboard",
	}
	for email, want := range tests {
		t.Run(email, func(t *testing.T) {
			h := setupServer(t)
			route := h.login(t, email)
			require.Equal(t, want, route)

			resp, _ := h.get(t, route)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestServer_IndexRedirects(t *testing.T) {
	h := setupServer(t)

	resp, _ := h.get(t, "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	h.login(t, "worker@vineyard.test")
	resp, _ = h.get(t, "/")
	require.Equal(t, "/worker/dashboard", resp.Header.Get("Location"))
}

func TestServer_GuardRedirects(t *testing.T) {
	h := setupServer(t)

	resp, _ := h.get(t, "/sites")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	h.login(t, "worker@vineyard.test")
	resp, _ = h.get(t, "/admin/dashboard")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/worker/dashboard", resp.Header.Get("Location"))

	resp, _ = h.get(t, "/sites")
	require.Equal(t, "/worker/dashboard", resp.Header.Get("Location"))
}

func TestServer_AdminMayOpenOtherDashboards(t *testing.T) {
	h := setupServer(t)
	h.login(t, "admin@vineyard.test")

	resp, _ := h.get(t, "/customer/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_HTMXRedirect(t *testing.T) {
	h := setupServer(t)

	req, err := http.NewRequest(http.MethodGet, h.baseURL+"/sites", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
}

func TestServer_LogoutClearsSession(t *testing.T) {
	h := setupServer(t)
	h.login(t, "customer@vineyard.test")

	resp, _ := h.get(t, "/sites")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	before := h.backend.CountRequests(http.MethodGet, "/site")

	resp, _ = h.get(t, "/auth/logout")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, "a link cannot log the user out")

	resp, _ = h.post(t, "/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = h.get(t, "/sites")
	require.Equal(t, "/login", resp.Header.Get("Location"))
	require.Equal(t, before, h.backend.CountRequests(http.MethodGet, "/site"))

	_, body := h.get(t, "/login")
	require.Contains(t, body, "You have been logged out")
}

func TestServer_LoginRotatesSessionID(t *testing.T) {
	h := setupServer(t)
	base, err := url.Parse(h.baseURL)
	require.NoError(t, err)

	h.get(t, "/login")
	before := h.client.Jar.Cookies(base)
	require.Len(t, before, 1)

	require.Equal(t, "/customer/dashboard", h.login(t, "customer@vineyard.test"))
	after := h.client.Jar.Cookies(base)
	require.Len(t, after, 1)
	require.NotEqual(t, before[0].Value, after[0].Value)

	resp, _ := h.get(t, "/customer/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// a browser still holding the pre-login ID gets a fresh anonymous session
	other := newBrowser(t)
	other.Jar.SetCookies(base, before)
	resp, err = other.Get(h.baseURL + "/customer/dashboard")
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestServer_LoginValidation(t *testing.T) {
	h := setupServer(t)

	resp, body := h.post(t, "/auth/login", url.Values{"email": {"not-an-email"}, "password": {""}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, body, "Enter a valid email address")
	require.Contains(t, body, "This field is required")
	require.Zero(t, h.backend.CountRequests(http.MethodPost, "/auth/login"))
}

func TestServer_LoginWrongPassword(t *testing.T) {
	h := setupServer(t)

	resp, body := h.post(t, "/auth/login", url.Values{"email": {"customer@vineyard.test"}, "password": {"wrongpass1"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "Invalid email or password")
	require.Contains(t, body, `value="customer@vineyard.test"`)
	require.Zero(t, h.backend.CountRequests(http.MethodPost, backendfake.RefreshPath))
}

func TestServer_LoginRateLimit(t *testing.T) {
	t.Setenv("LOGIN_RATE_PER_MINUTE", "2")
	h := setupServer(t)

	form := url.Values{"email": {"customer@vineyard.test"}, "password": {"wrongpass1"}}
	for range 2 {
		resp, _ := h.post(t, "/auth/login", form)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := h.post(t, "/auth/login", form)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "30", resp.Header.Get("Retry-After"))
	require.Contains(t, body, "Too many login attempts")
	require.Equal(t, 2, h.backend.CountRequests(http.MethodPost, "/auth/login"))
}

func TestServer_SignupRejectsAdminRole(t *testing.T) {
	h := setupServer(t)

	resp, body := h.post(t, "/auth/signup", url.Values{
		"firstName":       {"Eve"},
		"email":           {"eve@vineyard.test"},
		"password":        {"password1"},
		"confirmPassword": {"password1"},
		"role":            {"admin"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, body, "Choose a valid role")
}

func TestServer_SignupRedirectsToLogin(t *testing.T) {
	h := setupServer(t)

	resp, _ := h.post(t, "/auth/signup", url.Values{
		"firstName":       {"Gus"},
		"email":           {"gus@vineyard.test"},
		"password":        {"password1"},
		"confirmPassword": {"password1"},
		"role":            {"worker"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?email=gus%40vineyard.test", resp.Header.Get("Location"))
}

func TestServer_WorkOrderInstructionsAreSanitized(t *testing.T) {
	h := setupServer(t)
	owner := h.backend.SeedUser(users.User{FirstName: "Olive", Email: "olive@vineyard.test", Role: users.RoleCustomer}, backendfake.DemoPassword)
	id := h.backend.Seed("work-order", map[string]any{
		"title": "Spray block B", "type": "spraying", "siteId": "s1", "customerId": owner.ID, "status": "pending",
		"instructions": `<p>Use <em>sulphur</em></p><script>alert("x")</script><a href="javascript:alert(1)">bad</a>`,
	})
	h.login(t, "olive@vineyard.test")

	resp, body := h.get(t, "/work-orders/"+id)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "<p>Use <em>sulphur</em></p>")
	require.NotContains(t, body, "<script>alert")
	require.NotContains(t, body, "javascript:")
}

func TestServer_CustomerCannotSeeOtherWorkOrders(t *testing.T) {
	h := setupServer(t)
	id := h.backend.Seed("work-order", map[string]any{
		"title": "Someone else's", "type": "picking", "siteId": "s1", "customerId": "another", "status": "pending",
	})
	h.login(t, "customer@vineyard.test")

	resp, _ := h.get(t, "/work-orders/"+id)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CustomerCreatesOwnSite(t *testing.T) {
	h := setupServer(t)
	h.login(t, "customer@vineyard.test")

	resp, body := h.post(t, "/sites", url.Values{"name": {""}, "address": {"1 Road"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, body, "This field is required")

	resp, _ = h.post(t, "/sites", url.Values{
		"name":       {"Valley Floor"},
		"address":    {"8 Creek Ln"},
		"customerId": {"somebody-else"},
		"varieties":  {"Riesling, Chardonnay"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/sites/"))

	// only visible to the customer if they own it
	resp, body = h.get(t, location)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Valley Floor")
	require.Contains(t, body, "Riesling, Chardonnay")
	require.Contains(t, body, "Site created")
}

func TestServer_WorkerUpdatesTask(t *testing.T) {
	h := setupServer(t)
	worker := h.backend.SeedUser(users.User{FirstName: "Tia", Email: "tia@vineyard.test", Role: users.RoleWorker}, backendfake.DemoPassword)
	id := h.backend.Seed("worker-tasks", map[string]any{
		"workOrderId": "wo1", "workerId": worker.ID, "description": "Pick rows 3-9", "status": "assigned",
	})
	h.login(t, "tia@vineyard.test")

	resp, _ := h.post(t, "/tasks/"+id+"/status", url.Values{"status": {"bogus"}})
	require.Equal(t, "/tasks", resp.Header.Get("Location"))
	require.Zero(t, h.backend.CountRequests(http.MethodPut, "/worker-tasks/"+id))

	resp, _ = h.post(t, "/tasks/"+id+"/status", url.Values{"status": {"done"}, "hoursWorked": {"6.5"}, "rowsCompleted": {"7"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, 1, h.backend.CountRequests(http.MethodPut, "/worker-tasks/"+id))

	_, body := h.get(t, "/tasks")
	require.Contains(t, body, "Task updated")
	require.Contains(t, body, `value="6.5"`)
}

func TestServer_WorkerCannotUpdateOthersTask(t *testing.T) {
	h := setupServer(t)
	id := h.backend.Seed("worker-tasks", map[string]any{
		"workOrderId": "wo1", "workerId": "someone", "description": "Not mine", "status": "assigned",
	})
	h.login(t, "worker@vineyard.test")

	resp, _ := h.post(t, "/tasks/"+id+"/status", url.Values{"status": {"done"}})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_AdminManagesAccounts(t *testing.T) {
	h := setupServer(t)
	h.login(t, "admin@vineyard.test")

	resp, body := h.get(t, "/accounts?role=worker")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "worker@vineyard.test")
	require.NotContains(t, body, "customer@vineyard.test")

	resp, body = h.post(t, "/accounts", url.Values{"email": {"new@vineyard.test"}, "role": {"worker"}, "abn": {"123"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, body, "Must be exactly 11 characters")

	resp, _ = h.post(t, "/accounts", url.Values{
		"firstName": {"Nia"}, "email": {"new@vineyard.test"}, "role": {"worker"}, "password": {"password1"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")

	_, body = h.get(t, location)
	require.Contains(t, body, "new@vineyard.test")

	resp, _ = h.post(t, location+"/delete", nil)
	require.Equal(t, "/accounts", resp.Header.Get("Location"))
}

func TestServer_ProfileUpdate(t *testing.T) {
	h := setupServer(t)
	h.login(t, "worker@vineyard.test")

	resp, body := h.get(t, "/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Session token expires</dt><dd>")
	require.NotContains(t, body, "Session token expires</dt><dd>-</dd>", "fake backend tokens carry an exp claim")

	resp, _ = h.post(t, "/profile", url.Values{"firstName": {"Wes"}, "phone": {strings.Repeat("9", 21)}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = h.post(t, "/profile", url.Values{"firstName": {"Wes"}, "lastName": {"Picker"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/profile", resp.Header.Get("Location"))

	_, body = h.get(t, "/profile")
	require.Contains(t, body, `value="Wes"`)
	require.Contains(t, body, "Profile updated")
	require.Contains(t, body, "worker@vineyard.test", "a partial update keeps the email")
}

func TestServer_SettingsTimezoneValidation(t *testing.T) {
	h := setupServer(t)
	h.login(t, "admin@vineyard.test")

	resp, body := h.get(t, "/settings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Australia/Adelaide")

	resp, _ = h.post(t, "/settings", url.Values{"companyName": {"Vines Co"}, "timezone": {"Mars/Olympus"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = h.post(t, "/settings", url.Values{"companyName": {"Vines Co"}, "timezone": {"Australia/Perth"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, 1, h.backend.CountRequests(http.MethodPut, "/config-system"))
}

func TestServer_ExpiredAccessTokenIsRefreshed(t *testing.T) {
	h := setupServer(t)
	h.login(t, "customer@vineyard.test")
	h.backend.ExpireAccessTokens()

	resp, body := h.get(t, "/sites")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Hillside North")
	require.Equal(t, 1, h.backend.CountRequests(http.MethodPost, backendfake.RefreshPath))
}

func TestServer_FailedRefreshLogsOut(t *testing.T) {
	h := setupServer(t)
	h.login(t, "customer@vineyard.test")
	h.backend.ExpireAccessTokens()
	h.backend.FailRefresh(true)

	resp, _ := h.get(t, "/sites")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = h.get(t, "/customer/dashboard")
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestServer_Healthz(t *testing.T) {
	h := setupServer(t)
	h.get(t, "/login")

	resp, body := h.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, 1, health.Sessions)
}

func TestServer_StaticCSS(t *testing.T) {
	h := setupServer(t)

	resp, body := h.get(t, "/css/app.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	require.Contains(t, body, ".toast-success")
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, err := http.NewRequest(http.MethodGet, h.baseURL+"/css/app.css", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp, err = h.client.Do(req)
	require.NoError(t, err)
	require.Empty(t, readBody(t, resp))
	require.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, _ = h.get(t, "/css/missing.css")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_SecurityHeaders(t *testing.T) {
	h := setupServer(t)

	resp, _ := h.get(t, "/login")
	require.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "vineyard_session" {
			found = true
			require.True(t, c.HttpOnly)
		}
	}
	require.True(t, found)
}
