package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"useraccounts/internal/config"
	"useraccounts/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// UserClaims identify the token's user and nothing else.
type UserClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg config.SecurityConfig) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTTL(),
		refreshTTL:    cfg.RefreshTTL(),
		now:           time.Now,
	}
}

func (t *TokenIssuer) AccessTTL() time.Duration {
	return t.accessTTL
}

func (t *TokenIssuer) RefreshTTL() time.Duration {
	return t.refreshTTL
}

func (t *TokenIssuer) SignAccessToken(user models.User) (string, error) {
	return t.sign(user.ID, t.accessSecret, t.accessTTL)
}

func (t *TokenIssuer) SignRefreshToken(user models.User) (string, error) {
	return t.sign(user.ID, t.refreshSecret, t.refreshTTL)
}

func (t *TokenIssuer) ParseAccessToken(tokenStr string) (*UserClaims, error) {
	return t.parse(tokenStr, t.accessSecret)
}

func (t *TokenIssuer) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	claims := UserClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) parse(tokenStr string, secret []byte) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
