package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// StaticKeySet serves verification keys from a JWKS document loaded once
type StaticKeySet struct {
	set jwk.Set
}

// NewStaticKeySet parses a JWKS (or a single JWK) document
func NewStaticKeySet(data []byte) (*StaticKeySet, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	return &StaticKeySet{set: set}, nil
}

// LookupKey implements KeySource
func (s *StaticKeySet) LookupKey(_ context.Context, kid string) (interface{}, error) {
	return publicKeyFromSet(s.set, kid)
}

// RemoteKeySet fetches a JWKS over HTTP and keeps it refreshed in the background
type RemoteKeySet struct {
	cache *jwk.Cache
	url   string
}

// NewRemoteKeySet registers url with a refreshing cache and performs the first fetch.
// The background refresher stops when ctx is cancelled.
func NewRemoteKeySet(ctx context.Context, url string, minRefresh time.Duration) (*RemoteKeySet, error) {
	if minRefresh <= 0 {
		minRefresh = 15 * time.Minute
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(url, jwk.WithMinRefreshInterval(minRefresh)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS url: %w", err)
	}
	if _, err := cache.Refresh(ctx, url); err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", url, err)
	}

	return &RemoteKeySet{cache: cache, url: url}, nil
}

// LookupKey implements KeySource
// An unknown kid forces one refresh before giving up, which picks up rotated keys.
func (r *RemoteKeySet) LookupKey(ctx context.Context, kid string) (interface{}, error) {
	set, err := r.cache.Get(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}
	if _, ok := set.LookupKeyID(kid); !ok {
		set, err = r.cache.Refresh(ctx, r.url)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
		}
	}
	return publicKeyFromSet(set, kid)
}

func publicKeyFromSet(set jwk.Set, kid string) (interface{}, error) {
	if kid == "" {
		return nil, fmt.Errorf("token has no 'kid' header")
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("no key found with kid %q", kid)
	}

	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	var raw interface{}
	if err := pub.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to export public key: %w", err)
	}
	return raw, nil
}

// SignWithJWK signs claims with a private JWK (ES256 or RS256), setting 'kid'
func SignWithJWK(claims *Claims, key jwk.Key) (string, error) {
	if key.KeyID() == "" {
		return "", fmt.Errorf("signing key has no kid")
	}

	alg := key.Algorithm().String()
	if alg == "" {
		switch key.KeyType().String() {
		case "EC":
			alg = AlgorithmES256
		case "RSA":
			alg = AlgorithmRS256
		}
	}
	if alg != AlgorithmES256 && alg != AlgorithmRS256 {
		return "", fmt.Errorf("unsupported signing algorithm: %q", alg)
	}

	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return "", fmt.Errorf("failed to export private key: %w", err)
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(alg), claims)
	token.Header["kid"] = key.KeyID()

	signed, err := token.SignedString(raw)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParsePrivateJWK parses a single private JWK document
func ParsePrivateJWK(data []byte) (jwk.Key, error) {
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWK: %w", err)
	}
	return key, nil
}
