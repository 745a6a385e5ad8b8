package backendfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, record{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if !strings.EqualFold(acc.user.Email, creds.Email) {
			continue
		}
		if !users.CheckPasswordHash(creds.Password, acc.passwordHash) {
			break
		}
		access, refresh, err := b.issueTokensLocked(acc.user.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, record{"message": err.Error()})
			return
		}
		ok(w, http.StatusOK, "Login successful", record{
			"user":          acc.user,
			"access_token":  access,
			"refresh_token": refresh,
		})
		return
	}
	writeJSON(w, http.StatusUnauthorized, record{"message": "Invalid email or password"})
}

func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	b.mu.Lock()
	defer b.mu.Unlock()
	userID, found := b.refreshTokens[token]
	if b.failRefresh || !found {
		writeJSON(w, http.StatusUnauthorized, record{"message": "Invalid refresh token"})
		return
	}
	delete(b.refreshTokens, token)
	access, refresh, err := b.issueTokensLocked(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, record{"message": err.Error()})
		return
	}
	ok(w, http.StatusOK, "Token refreshed", record{"access_token": access, "refresh_token": refresh})
}

func (b *Backend) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		users.User
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, record{"message": "Email is required"})
		return
	}
	b.mu.Lock()
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) {
			b.mu.Unlock()
			writeJSON(w, http.StatusConflict, record{"message": "Email already registered"})
			return
		}
	}
	b.mu.Unlock()

	req.User.ID = ""
	u := b.SeedUser(req.User, req.Password)
	ok(w, http.StatusCreated, "Account created", u)
}

func (b *Backend) listAccounts(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]users.User, 0, len(b.accounts))
	for _, acc := range b.accounts {
		if role == "" || string(acc.user.Role) == role {
			out = append(out, acc.user)
		}
	}
	sortUsers(out)
	ok(w, http.StatusOK, "Accounts", out)
}

func (b *Backend) getAccount(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, found := b.accounts[r.PathValue("id")]
	if !found {
		writeJSON(w, http.StatusNotFound, record{"message": "Account not found"})
		return
	}
	ok(w, http.StatusOK, "Account", acc.user)
}

func (b *Backend) updateAccount(w http.ResponseWriter, r *http.Request) {
	var patch users.User
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, record{"message": "Invalid request body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, found := b.accounts[r.PathValue("id")]
	if !found {
		writeJSON(w, http.StatusNotFound, record{"message": "Account not found"})
		return
	}
	mergeUser(&acc.user, patch)
	ok(w, http.StatusOK, "Account updated", acc.user)
}

func (b *Backend) deleteAccount(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.PathValue("id")
	if _, found := b.accounts[id]; !found {
		writeJSON(w, http.StatusNotFound, record{"message": "Account not found"})
		return
	}
	delete(b.accounts, id)
	ok(w, http.StatusOK, "Account deleted", nil)
}

func (b *Backend) list(coll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		b.mu.Lock()
		defer b.mu.Unlock()
		out := make([]record, 0)
		for _, rec := range sortedRecords(b.collections[coll]) {
			if matches(rec, query) {
				out = append(out, rec)
			}
		}
		ok(w, http.StatusOK, "List", out)
	}
}

func (b *Backend) get(coll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		rec, found := b.collections[coll][r.PathValue("id")]
		if !found {
			writeJSON(w, http.StatusNotFound, record{"message": fmt.Sprintf("%s not found", coll)})
			return
		}
		ok(w, http.StatusOK, "Detail", rec)
	}
}

func (b *Backend) create(coll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := record{}
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeJSON(w, http.StatusBadRequest, record{"message": "Invalid request body"})
			return
		}
		delete(rec, "_id")
		b.mu.Lock()
		defer b.mu.Unlock()
		b.insertLocked(coll, rec)
		ok(w, http.StatusCreated, "Created", rec)
	}
}

// update merges the non-zero fields of the body into the record; replace swaps the whole record (PUT)
func (b *Backend) update(coll string, replace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch := record{}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, record{"message": "Invalid request body"})
			return
		}
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		rec, found := b.collections[coll][id]
		if !found {
			writeJSON(w, http.StatusNotFound, record{"message": fmt.Sprintf("%s not found", coll)})
			return
		}
		if replace {
			patch["createdAt"] = rec["createdAt"]
			rec = patch
		} else {
			for k, v := range patch {
				if isZero(v) {
					continue
				}
				rec[k] = v
			}
		}
		rec["_id"] = id
		b.collections[coll][id] = rec
		ok(w, http.StatusOK, "Updated", rec)
	}
}

func (b *Backend) remove(coll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, found := b.collections[coll][id]; !found {
			writeJSON(w, http.StatusNotFound, record{"message": fmt.Sprintf("%s not found", coll)})
			return
		}
		delete(b.collections[coll], id)
		ok(w, http.StatusOK, "Deleted", nil)
	}
}

func (b *Backend) uploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, record{"message": "Invalid upload"})
		return
	}
	_, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, record{"message": "Image is required"})
		return
	}
	name := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	ok(w, http.StatusCreated, "Uploaded", record{"url": "/images/" + name})
}

func (b *Backend) getConfig(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ok(w, http.StatusOK, "Config", b.config)
}

func (b *Backend) putConfig(w http.ResponseWriter, r *http.Request) {
	cfg := record{}
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, record{"message": "Invalid request body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config = cfg
	ok(w, http.StatusOK, "Config updated", b.config)
}
