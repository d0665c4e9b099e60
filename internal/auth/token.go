package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smilecare/dental-scheduling/internal/profile"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the identity-provider subject and role claim consumed by
// every endpoint. Authentication itself (sign-in flows, password handling)
// lives with the external identity provider; this package only verifies.
type Claims struct {
	Role profile.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified caller placed into the request context.
type Identity struct {
	ProfileID uuid.UUID
	Role      profile.Role
}

// ParseToken verifies an HS256 bearer token and extracts the identity.
func ParseToken(tokenString, secret string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	profileID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a profile id", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return &Identity{ProfileID: profileID, Role: claims.Role}, nil
}

// SignToken issues a token for a profile. Used by the seed tool and tests;
// production tokens come from the identity provider.
func SignToken(profileID uuid.UUID, role profile.Role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
