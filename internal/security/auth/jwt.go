package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yourorg/taskflow/internal/domain"
)

// Claims is the token payload
type Claims struct {
	UserID   string      `json:"userId"`
	TenantID string      `json:"tenantId"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified caller of a protected request
type Identity struct {
	UserID    string
	TenantID  string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// TokenManager issues and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "taskflow"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs a token for the given user
func (tm *TokenManager) Issue(userID, tenantID string, role domain.Role) (string, Identity, error) {
	if tenantID == "" || userID == "" {
		return "", Identity{}, errors.New("tenant id and user id required")
	}
	now := tm.now()
	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", Identity{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.identity(), nil
}

// Verify checks signature, algorithm, issuer and expiry. Every failure is
// reported as domain.ErrInvalidToken.
func (tm *TokenManager) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, domain.ErrInvalidToken
	}
	if claims.UserID == "" || claims.TenantID == "" || claims.ID == "" {
		return Identity{}, domain.ErrInvalidToken
	}
	return claims.identity(), nil
}

func (c *Claims) identity() Identity {
	id := Identity{
		UserID:   c.UserID,
		TenantID: c.TenantID,
		Role:     c.Role,
		TokenID:  c.ID,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// ExtractToken returns the credential of a "Bearer <token>" header
func ExtractToken(authHeader string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", domain.ErrNoToken
	}
	return strings.TrimSpace(token), nil
}
