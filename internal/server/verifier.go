package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

type Claims struct {
	UserID string
	Email  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// JWKSVerifier validates Cognito access tokens against the pool's cached key set.
type JWKSVerifier struct {
	cache *jwk.Cache
	url   string
}

func NewJWKSVerifier(cache *jwk.Cache, url string) *JWKSVerifier {
	return &JWKSVerifier{cache: cache, url: url}
}

func (v *JWKSVerifier) Verify(ctx context.Context, accessToken string) (*Claims, error) {
	set, err := v.cache.Lookup(ctx, v.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(accessToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, errors.New("no user ID in JWT subject claim")
	}

	// email is optional, access tokens usually omit it
	var email string
	_ = token.Get("email", &email)

	return &Claims{UserID: userID, Email: email}, nil
}
