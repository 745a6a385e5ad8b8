package backendfake

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

// AccessTokenTTL is the lifetime written into the exp claim of issued access tokens
const AccessTokenTTL = 15 * time.Minute

// hmacSigner mints and verifies HS256 access tokens
type hmacSigner struct {
	secret  []byte
	nowTime func() time.Time
}

func newHMACSigner() hmacSigner {
	return hmacSigner{secret: []byte(uuid.New().String()), nowTime: time.Now}
}

// accessToken returns the signed token and its jti
func (s hmacSigner) accessToken(u users.User) (string, string, error) {
	now := s.nowTime()
	jti := uuid.New().String()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(AccessTokenTTL).Unix(),
		"jti":  jti,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("[backendfake accessToken] failed to sign token: %w", err)
	}
	return signed, jti, nil
}

// verify checks the signature and expiry, returning the jti
func (s hmacSigner) verify(token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.nowTime))
	if err != nil {
		return "", err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return "", fmt.Errorf("[backendfake verify] token has no jti")
	}
	return jti, nil
}
