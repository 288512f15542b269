package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
)

// Claims is the session token payload.
type Claims struct {
	AccountID string      `json:"account_id"`
	Role      models.Role `json:"role"`
	Email     string      `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 session token for the account.
func GenerateToken(secret string, account *models.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		AccountID: account.ID.String(),
		Role:      account.Role,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the authenticated actor.
func ParseToken(secret, tokenString string) (models.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.Actor{}, jwt.ErrTokenInvalidClaims
	}

	id, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return models.Actor{}, err
	}
	if !claims.Role.Valid() {
		return models.Actor{}, errors.New("token carries unknown role")
	}

	return models.Actor{ID: id, Role: claims.Role}, nil
}

// TokenIssuer signs session tokens with a fixed secret and lifetime.
type TokenIssuer struct {
	Secret string
	TTL    time.Duration
}

// Issue signs a session token for account.
func (i TokenIssuer) Issue(account *models.Account) (string, error) {
	return GenerateToken(i.Secret, account, i.TTL)
}
