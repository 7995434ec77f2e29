// Package auth issues and verifies the signed tokens used by the
// password-reset flow.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const resetIssuer = "delivery-slots"

// ResetTokens mints HS256 tokens whose subject is the account id.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewResetTokens(secret string, ttl time.Duration) *ResetTokens {
	return &ResetTokens{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for the account, valid for the TTL.
func (t *ResetTokens) Issue(accountID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    resetIssuer,
		Subject:   strconv.FormatInt(accountID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify validates a token and returns the account id it was issued for.
func (t *ResetTokens) Verify(tokenStr string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.Issuer != resetIssuer {
		return 0, errors.New("issuer mismatch")
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("invalid subject")
	}

	return id, nil
}
