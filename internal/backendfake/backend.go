// Package backendfake is an in-memory stand-in for the vineyard REST backend.
// It is used by tests and by cmd/fakebackend for local development.
package backendfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

const (
	RefreshPath = "/auth/refresh-token"

	collSites      = "site"
	collBlocks     = "block"
	collWorkOrders = "work-order"
	collTasks      = "worker-tasks"
)

// RequestLog is one request the backend received
type RequestLog struct {
	Method        string
	Path          string
	Authorization string
}

type account struct {
	user         users.User
	passwordHash string
}

type record = map[string]any

// Backend implements http.Handler
type Backend struct {
	mux *http.ServeMux

	mu            sync.Mutex
	accounts      map[string]*account // by ID
	signer        hmacSigner
	accessTokens  map[string]string   // jti to user ID, revoked by ExpireAccessTokens
	refreshTokens map[string]string   // token to user ID
	collections   map[string]map[string]record
	config        record
	requests      []RequestLog
	failRefresh   bool
}

func New() *Backend {
	b := &Backend{
		mux:           http.NewServeMux(),
		accounts:      make(map[string]*account),
		signer:        newHMACSigner(),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		collections: map[string]map[string]record{
			collSites:      {},
			collBlocks:     {},
			collWorkOrders: {},
			collTasks:      {},
		},
		config: record{
			"companyName":       "Vineyard Services",
			"timezone":          "Australia/Adelaide",
			"defaultHourlyRate": 32.5,
			"workOrderTypes":    []any{"pruning", "picking", "spraying", "trellising"},
			"grapeVarieties":    []any{"Shiraz", "Cabernet Sauvignon", "Chardonnay", "Riesling"},
		},
	}
	b.routes()
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, RequestLog{Method: r.Method, Path: r.URL.Path, Authorization: r.Header.Get("Authorization")})
	b.mu.Unlock()
	b.mux.ServeHTTP(w, r)
}

func (b *Backend) routes() {
	b.mux.HandleFunc("POST /auth/login", b.login)
	b.mux.HandleFunc("POST "+RefreshPath, b.refresh)
	b.mux.HandleFunc("POST /auth/signup", b.authed(b.signup))
	b.mux.HandleFunc("GET /auth", b.authed(b.listAccounts))
	b.mux.HandleFunc("GET /auth/{id}", b.authed(b.getAccount))
	b.mux.HandleFunc("PATCH /auth/{id}", b.authed(b.updateAccount))
	b.mux.HandleFunc("DELETE /auth/{id}", b.authed(b.deleteAccount))

	for _, coll := range []string{collSites, collBlocks, collWorkOrders, collTasks} {
		b.mux.HandleFunc("GET /"+coll, b.authed(b.list(coll)))
		b.mux.HandleFunc("POST /"+coll, b.authed(b.create(coll)))
		b.mux.HandleFunc("GET /"+coll+"/{id}", b.authed(b.get(coll)))
		b.mux.HandleFunc("PATCH /"+coll+"/{id}", b.authed(b.update(coll, false)))
		b.mux.HandleFunc("PUT /"+coll+"/{id}", b.authed(b.update(coll, true)))
		b.mux.HandleFunc("DELETE /"+coll+"/{id}", b.authed(b.remove(coll)))
	}

	b.mux.HandleFunc("POST /upload-image", b.authed(b.uploadImage))
	b.mux.HandleFunc("GET /config-system", b.authed(b.getConfig))
	b.mux.HandleFunc("PUT /config-system", b.authed(b.putConfig))
}

// SeedUser adds an account that can log in with password
func (b *Backend) SeedUser(u users.User, password string) users.User {
	hash, err := users.HashPassword(password)
	if err != nil {
		panic("backendfake: hash password: " + err.Error())
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[u.ID] = &account{user: u, passwordHash: hash}
	return u
}

// Seed inserts a record into a collection and returns its ID
func (b *Backend) Seed(collection string, rec map[string]any) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insertLocked(collection, rec)
}

// ExpireAccessTokens invalidates every issued access token, forcing clients to refresh
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessTokens = make(map[string]string)
}

// FailRefresh makes the refresh endpoint reject every call while set
func (b *Backend) FailRefresh(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = fail
}

// Requests returns a copy of the request log
func (b *Backend) Requests() []RequestLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RequestLog(nil), b.requests...)
}

// CountRequests counts logged requests matching method and path
func (b *Backend) CountRequests(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// issueTokensLocked pairs a signed access token with an opaque refresh token
func (b *Backend) issueTokensLocked(userID string) (string, string, error) {
	var u users.User
	if acc, ok := b.accounts[userID]; ok {
		u = acc.user
	}
	access, jti, err := b.signer.accessToken(u)
	if err != nil {
		return "", "", err
	}
	refresh := "ref-" + uuid.New().String()
	b.accessTokens[jti] = userID
	b.refreshTokens[refresh] = userID
	return access, refresh, nil
}

func (b *Backend) insertLocked(collection string, rec record) string {
	id, _ := rec["_id"].(string)
	if id == "" {
		id = uuid.New().String()
		rec["_id"] = id
	}
	if _, ok := rec["createdAt"]; !ok {
		rec["createdAt"] = time.Now().UTC().Format(time.RFC3339)
	}
	b.collections[collection][id] = rec
	return id
}

// authed rejects requests without a live access token
func (b *Backend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		jti, err := b.signer.verify(token)
		b.mu.Lock()
		_, ok := b.accessTokens[jti]
		b.mu.Unlock()
		if err != nil || !ok {
			writeJSON(w, http.StatusUnauthorized, record{"message": "jwt expired"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, message string, meta any) {
	writeJSON(w, status, record{"message": message, "metaData": meta})
}

func sortedRecords(m map[string]record) []record {
	out := make([]record, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return fmt.Sprint(out[i]["createdAt"], out[i]["_id"]) < fmt.Sprint(out[j]["createdAt"], out[j]["_id"])
	})
	return out
}
