package apiclient

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/vineyard-dashboard/storage"
	"golang.org/x/oauth2"
)

// TokenStore persists the session's token pair between requests
type TokenStore interface {
	// Token returns the current pair, or false when no access token is stored
	Token() (*oauth2.Token, bool)
	// SetToken replaces both tokens. An empty refresh token keeps the stored one.
	SetToken(token *oauth2.Token)
	// ClearToken removes both tokens
	ClearToken()
}

// StorageTokens keeps the token pair in a session's KV storage under the fixed keys.
// The mutex makes the pair read and replaced as a unit. generation changes on every
// replacement or clear so a refresh started before a logout cannot write its pair back.
type StorageTokens struct {
	mu         sync.Mutex
	kv         storage.KV
	generation uint64
}

var _ TokenStore = (*StorageTokens)(nil)

func NewStorageTokens(kv storage.KV) *StorageTokens {
	return &StorageTokens{kv: kv}
}

func (s *StorageTokens) Token() (*oauth2.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, ok := s.kv.Get(storage.KeyAccessToken)
	if !ok || access == "" {
		return nil, false
	}
	refresh, _ := s.kv.Get(storage.KeyRefreshToken)
	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Expiry:       AccessTokenExpiry(access),
	}, true
}

// RefreshTokenGeneration returns the stored refresh token, even when no access token is
// present, and the generation it belongs to
func (s *StorageTokens) RefreshTokenGeneration() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refresh, _ := s.kv.Get(storage.KeyRefreshToken)
	return refresh, s.generation
}

func (s *StorageTokens) SetToken(token *oauth2.Token) {
	if token == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(token)
}

// SetTokenIfGeneration stores token only when nothing replaced or cleared the pair since
// generation was read. It reports whether the token was stored.
func (s *StorageTokens) SetTokenIfGeneration(generation uint64, token *oauth2.Token) bool {
	if token == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false
	}
	s.setLocked(token)
	return true
}

func (s *StorageTokens) setLocked(token *oauth2.Token) {
	s.generation++
	s.kv.Set(storage.KeyAccessToken, token.AccessToken)
	if token.RefreshToken != "" {
		s.kv.Set(storage.KeyRefreshToken, token.RefreshToken)
	}
}

func (s *StorageTokens) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.kv.Remove(storage.KeyAccessToken, storage.KeyRefreshToken)
}

// AccessTokenExpiry reads the exp claim of a JWT access token without verifying it.
// The dashboard never verifies tokens itself; the backend does. Opaque tokens yield the zero time.
func AccessTokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
