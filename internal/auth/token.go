// Package auth signs and verifies the portal's bearer tokens: HS256 JWTs
// whose jti is the server-side session id.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "atelier-portal"

// Claims identify a portal session. SID is the key of the server-side
// session record; a token whose record is gone is no longer valid.
type Claims struct {
	SID      string
	Email    string
	Name     string
	Role     string
	IssuedAt int64
	Exp      int64
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Signer struct {
	key []byte
	now func() time.Time
}

func NewSigner(secret []byte) *Signer {
	return &Signer{key: secret, now: time.Now}
}

// Issue stamps IssuedAt and signs the claims.
func (s *Signer) Issue(claims Claims) (string, error) {
	claims.IssuedAt = s.now().Unix()
	tc := tokenClaims{
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       claims.SID,
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
		},
	}
	if claims.Exp != 0 {
		tc.ExpiresAt = jwt.NewNumericDate(time.Unix(claims.Exp, 0))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Signer) Parse(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	var tc tokenClaims
	_, err := parser.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if tc.ID == "" || tc.Email == "" {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{SID: tc.ID, Email: tc.Email, Name: tc.Name, Role: tc.Role, Exp: tc.ExpiresAt.Unix()}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Unix()
	}
	return claims, nil
}

// HashToken derives the storage key for a session id, so raw ids never
// reach Redis or Postgres.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
