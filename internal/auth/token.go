// Package auth issues and verifies operator tokens for the admin routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is an operator's permission level.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
)

const issuer = "nexuscrux-website"

var (
	ErrMissingSecret = errors.New("auth: signing secret not configured")
	ErrInvalidRole   = errors.New("auth: invalid role")
	ErrInvalidToken  = errors.New("auth: invalid token")
)

// ParseRole accepts "viewer" or "editor".
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleViewer, RoleEditor:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Allows reports whether r grants at least the permissions of required.
// Editors can do everything viewers can.
func (r Role) Allows(required Role) bool {
	switch required {
	case RoleViewer:
		return r == RoleViewer || r == RoleEditor
	case RoleEditor:
		return r == RoleEditor
	}
	return false
}

// OperatorClaims are the claims carried by an operator token.
type OperatorClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs operator tokens with HS256.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl applies when Issue is given zero.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token for subject with role. A zero ttl uses the issuer default.
func (i *TokenIssuer) Issue(subject string, role Role, ttl time.Duration) (string, *OperatorClaims, error) {
	if len(i.secret) == 0 {
		return "", nil, ErrMissingSecret
	}
	if _, err := ParseRole(string(role)); err != nil {
		return "", nil, err
	}
	if ttl <= 0 {
		ttl = i.ttl
	}
	now := i.now()
	claims := &OperatorClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, claims, nil
}

// ParseOperatorToken verifies signature, expiry and role of a token.
func ParseOperatorToken(tokenString, secret string) (*OperatorClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := ParseRole(string(claims.Role)); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	return claims, nil
}

type contextKey string

const claimsKey contextKey = "operatorClaims"

// WithClaims stores verified claims on ctx.
func WithClaims(ctx context.Context, claims *OperatorClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns operator claims if present.
func ClaimsFromContext(ctx context.Context) (*OperatorClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*OperatorClaims)
	return claims, ok && claims != nil
}
