// Package auth issues and verifies the bearer tokens that carry a caller's
// identity and role to the ledger. Account passwords are managed elsewhere.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hrledger/internal/domain/employee"
)

const Issuer = "hrledger"

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string        `json:"uid"`
	Role   employee.Role `json:"role"`
	Name   string        `json:"name,omitempty"`
	Email  string        `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserContext is the authenticated caller as handlers see it.
type UserContext struct {
	UserID string
	Role   employee.Role
	Name   string
	Email  string
}

func (u UserContext) IsAdmin() bool {
	return u.Role == employee.RoleAdmin
}

func ClaimsFor(e employee.Employee) Claims {
	return Claims{UserID: e.ID, Role: e.Role, Name: e.Name, Email: e.Email}
}

func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c Claims) User() UserContext {
	return UserContext{UserID: c.UserID, Role: c.Role, Name: c.Name, Email: c.Email}
}
