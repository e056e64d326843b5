package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrResetNotFound is the sentinel reset stores return on an unknown JTI.
var ErrResetNotFound = errors.New("reset token not found")

// ResetRow is the stored side of an issued reset token. Like session tokens,
// only the HMAC fingerprint of the raw token is kept; RedeemedAt being set is
// what makes a reset token single-use.
type ResetRow struct {
	ID         string     `json:"id"` // the token's JTI
	AccountID  string     `json:"accountId"`
	TokenHash  string     `json:"tokenHash"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RedeemedAt *time.Time `json:"redeemedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ResetClaims is the payload of a password-reset token. The token is a signed
// JWT so its lifetime travels inside it, but redemption still goes through a
// stored row keyed by JTI, which is what makes it single-use.
type ResetClaims struct {
	AccountID string `json:"sub"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// GenerateResetToken signs a short-lived reset token for the account.
func (m *Manager) GenerateResetToken(accountID, email string) (raw string, jti string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	jti = uuid.NewString()
	expiresAt = now.Add(m.resetTTL)

	claims := ResetClaims{
		AccountID: accountID,
		Email:     email,
		TokenType: "reset",
		JTI:       jti,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   accountID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	raw, err = token.SignedString(m.secret)

	return
}

// VerifyResetToken checks the signature and shape of a presented reset token.
func (m *Manager) VerifyResetToken(tokenStr string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ResetClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ResetClaims)

	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TokenType != "reset" {
		return nil, errors.New("invalid token type")
	}

	if claims.JTI == "" {
		return nil, errors.New("missing jti")
	}

	return claims, nil
}
