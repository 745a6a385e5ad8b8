package resources_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/vineyard-dashboard/apiclient"
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/users"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	params url.Values
	body   any
	files  []apiclient.FormFile
	opts   int
}

// recorder answers every call with the same raw response
type recorder struct {
	calls    []call
	response string
	err      error
}

func (r *recorder) record(c call) (json.RawMessage, error) {
	r.calls = append(r.calls, c)
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.response), nil
}

func (r *recorder) Get(_ context.Context, path string, params url.Values, opts ...apiclient.CallOption) (json.RawMessage, error) {
	return r.record(call{method: http.MethodGet, path: path, params: params, opts: len(opts)})
}

func (r *recorder) Post(_ context.Context, path string, body any, opts ...apiclient.CallOption) (json.RawMessage, error) {
	return r.record(call{method: http.MethodPost, path: path, body: body, opts: len(opts)})
}

func (r *recorder) Patch(_ context.Context, path string, body any, opts ...apiclient.CallOption) (json.RawMessage, error) {
	return r.record(call{method: http.MethodPatch, path: path, body: body, opts: len(opts)})
}

func (r *recorder) Put(_ context.Context, path string, body any, opts ...apiclient.CallOption) (json.RawMessage, error) {
	return r.record(call{method: http.MethodPut, path: path, body: body, opts: len(opts)})
}

func (r *recorder) Delete(_ context.Context, path string, params url.Values, opts ...apiclient.CallOption) (json.RawMessage, error) {
	return r.record(call{method: http.MethodDelete, path: path, params: params, opts: len(opts)})
}

func (r *recorder) Upload(_ context.Context, path string, _ map[string]string, files []apiclient.FormFile, opts ...apiclient.CallOption) (json.RawMessage, error) {
	return r.record(call{method: http.MethodPost, path: path, files: files, opts: len(opts)})
}

func newAPI(t *testing.T, response string) (*resources.API, *recorder) {
	t.Helper()
	rec := &recorder{response: response}
	return resources.New(rec), rec
}

func TestResources_MethodAndPath(t *testing.T) {
	ctx := context.Background()
	api, rec := newAPI(t, `{"metaData":{}}`)

	steps := []struct {
		name   string
		invoke func() error
		method string
		path   string
	}{
		{"sites get", func() error { _, err := api.Sites.Get(ctx, "s1"); return err }, http.MethodGet, "/site/s1"},
		{"sites create", func() error { _, err := api.Sites.Create(ctx, resources.Site{Name: "Ridge"}); return err }, http.MethodPost, "/site"},
		{"sites update", func() error { _, err := api.Sites.Update(ctx, "s1", resources.Site{}); return err }, http.MethodPatch, "/site/s1"},
		{"sites delete", func() error { return api.Sites.Delete(ctx, "s1") }, http.MethodDelete, "/site/s1"},
		{"blocks get", func() error { _, err := api.Blocks.Get(ctx, "b1"); return err }, http.MethodGet, "/block/b1"},
		{"blocks delete", func() error { return api.Blocks.Delete(ctx, "b1") }, http.MethodDelete, "/block/b1"},
		{"work order update", func() error { _, err := api.WorkOrders.Update(ctx, "w1", resources.WorkOrder{}); return err }, http.MethodPatch, "/work-order/w1"},
		{"task update", func() error { _, err := api.Tasks.Update(ctx, "t1", resources.WorkerTask{}); return err }, http.MethodPut, "/worker-tasks/t1"},
		{"task create", func() error { _, err := api.Tasks.Create(ctx, resources.WorkerTask{}); return err }, http.MethodPost, "/worker-tasks"},
		{"account get", func() error { _, err := api.Auth.GetAccount(ctx, "u1"); return err }, http.MethodGet, "/auth/u1"},
		{"account update", func() error { _, err := api.Auth.UpdateAccount(ctx, "u1", users.User{}); return err }, http.MethodPatch, "/auth/u1"},
		{"account delete", func() error { return api.Auth.DeleteAccount(ctx, "u1") }, http.MethodDelete, "/auth/u1"},
		{"signup", func() error { _, err := api.Auth.Signup(ctx, resources.SignupRequest{}); return err }, http.MethodPost, "/auth/signup"},
		{"config get", func() error { _, err := api.Config.Get(ctx); return err }, http.MethodGet, "/config-system"},
		{"config update", func() error { _, err := api.Config.Update(ctx, resources.SystemConfig{}); return err }, http.MethodPut, "/config-system"},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			rec.calls = nil
			require.NoError(t, step.invoke())
			require.Len(t, rec.calls, 1)
			require.Equal(t, step.method, rec.calls[0].method)
			require.Equal(t, step.path, rec.calls[0].path)
		})
	}
}

func TestResources_IDsAreEscaped(t *testing.T) {
	api, rec := newAPI(t, `{"metaData":{}}`)
	_, err := api.Sites.Get(context.Background(), "a/b c")
	require.NoError(t, err)
	require.Equal(t, "/site/a%2Fb%20c", rec.calls[0].path)
}

func TestResources_FiltersSkipEmptyValues(t *testing.T) {
	ctx := context.Background()
	api, rec := newAPI(t, `{"metaData":[{"_id":"w1","title":"Prune","status":"pending"}]}`)

	orders, err := api.WorkOrders.List(ctx, resources.WorkOrderFilter{Status: resources.WorkOrderPending, SiteID: "s1"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "Prune", orders[0].Title)
	require.Equal(t, url.Values{"status": {"pending"}, "siteId": {"s1"}}, rec.calls[0].params)

	_, err = api.Sites.List(ctx, resources.SiteFilter{})
	require.NoError(t, err)
	require.Nil(t, rec.calls[1].params)

	_, err = api.Auth.ListAccounts(ctx, users.RoleWorker)
	require.NoError(t, err)
	require.Equal(t, "worker", rec.calls[2].params.Get("role"))
}

func TestAuth_LoginDisablesRefresh(t *testing.T) {
	api, rec := newAPI(t, `{"message":"ok","metaData":{"user":{"_id":"u1","role":"admin"},"access_token":"T1","refresh_token":"R1"}}`)

	res, err := api.Auth.Login(context.Background(), "ada@vineyard.test", "vineyard123")
	require.NoError(t, err)
	require.Equal(t, "T1", res.AccessToken)
	require.Equal(t, "R1", res.RefreshToken)
	require.Equal(t, users.RoleAdmin, res.User.Role)

	require.Equal(t, "/auth/login", rec.calls[0].path)
	require.Equal(t, 2, rec.calls[0].opts, "login is quiet and never refreshes")
	require.Equal(t, resources.Credentials{Email: "ada@vineyard.test", Password: "vineyard123"}, rec.calls[0].body)
}

func TestImages_Upload(t *testing.T) {
	api, rec := newAPI(t, `{"metaData":{"url":"/images/ridge.png"}}`)

	u, err := api.Images.Upload(context.Background(), "ridge.png", strings.NewReader("png"))
	require.NoError(t, err)
	require.Equal(t, "/images/ridge.png", u)

	require.Equal(t, "/upload-image", rec.calls[0].path)
	require.Len(t, rec.calls[0].files, 1)
	require.Equal(t, "image", rec.calls[0].files[0].FieldName)
	content, err := io.ReadAll(rec.calls[0].files[0].Content)
	require.NoError(t, err)
	require.Equal(t, "png", string(content))
}

func TestResources_PropagatesErrors(t *testing.T) {
	api, rec := newAPI(t, "")
	rec.err = errors.New("boom")

	_, err := api.Blocks.List(context.Background(), "s1")
	require.EqualError(t, err, "boom")
}

func TestResources_BlankTimesAreNotSent(t *testing.T) {
	ctx := context.Background()
	api, rec := newAPI(t, `{"metaData":{}}`)

	_, err := api.Auth.UpdateAccount(ctx, "u1", users.User{FirstName: "Ann"})
	require.NoError(t, err)
	_, err = api.Sites.Update(ctx, "s1", resources.Site{Notes: "frost prone"})
	require.NoError(t, err)
	_, err = api.WorkOrders.Create(ctx, resources.WorkOrder{Title: "Prune"})
	require.NoError(t, err)

	for _, c := range rec.calls {
		body, err := json.Marshal(c.body)
		require.NoError(t, err)
		require.NotContains(t, string(body), "createdAt", c.path)
		require.NotContains(t, string(body), "startDate", c.path)
		require.NotContains(t, string(body), "dueDate", c.path)
		require.NotContains(t, string(body), "0001-01-01", c.path)
	}

	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	body, err := json.Marshal(resources.WorkOrder{Title: "Prune", DueDate: due})
	require.NoError(t, err)
	require.Contains(t, string(body), `"dueDate":"2026-11-02T00:00:00Z"`)
}
