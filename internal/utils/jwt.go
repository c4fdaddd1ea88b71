package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// Claims is the payload of access and refresh tokens
type Claims struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Kind  string `json:"kind"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Account() models.JWT {
	aud := ""
	if len(c.Audience) > 0 {
		aud = c.Audience[0]
	}
	return models.JWT{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Kind:     c.Kind,
		Role:     c.Role,
		Issuer:   c.Issuer,
		Audience: aud,
	}
}

func newClaims(user models.JWT, cfg models.JWTConfig, ttl time.Duration, jti string) Claims {
	now := time.Now()
	return Claims{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Kind:  user.Kind,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			Subject:   fmt.Sprintf("%s:%d", user.Kind, user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// GenerateJWT signs an access token for user
func GenerateJWT(user models.JWT, cfg models.JWTConfig) (string, error) {
	claims := newClaims(user, cfg, cfg.Expiry, "")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SecretKey))
}

// GenerateRefreshToken signs a refresh token and returns it with its jti
func GenerateRefreshToken(user models.JWT, cfg models.JWTConfig) (string, string, error) {
	jti := uuid.NewString()
	claims := newClaims(user, cfg, cfg.Refresh, jti)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.RefreshSecret))
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// ParseJWT verifies an access token
func ParseJWT(tokenString string, cfg models.JWTConfig) (*Claims, error) {
	return parse(tokenString, cfg.SecretKey, cfg)
}

// ParseRefreshToken verifies a refresh token
func ParseRefreshToken(tokenString string, cfg models.JWTConfig) (*Claims, error) {
	return parse(tokenString, cfg.RefreshSecret, cfg)
}

func parse(tokenString, secret string, cfg models.JWTConfig) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
