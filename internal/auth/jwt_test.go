package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func newTestJWK(t *testing.T, kid string) (jwk.Key, []byte) {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	key, err := jwk.FromRaw(privateKey)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	require.NoError(t, key.Set(jwk.AlgorithmKey, "ES256"))

	pub, err := jwk.PublicKeyOf(key)
	require.NoError(t, err)
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	data, err := json.Marshal(set)
	require.NoError(t, err)
	return key, data
}

func TestAuthenticate_HS256(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	require.NoError(t, err)

	token, err := SignHS256(NewClaims("user-1", "Alice", "https://img/a.png", "", time.Hour), testSecret)
	require.NoError(t, err)

	claims, err := v.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "https://img/a.png", claims.Avatar)

	// Bearer prefix is tolerated
	claims, err = v.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
}

func TestAuthenticate_Rejections(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret, Issuer: "postboard"})
	require.NoError(t, err)

	good := func(mod func(*Claims)) string {
		c := NewClaims("user-1", "", "", "postboard", time.Hour)
		if mod != nil {
			mod(c)
		}
		tok, signErr := SignHS256(c, testSecret)
		require.NoError(t, signErr)
		return tok
	}

	wrongSecret, err := SignHS256(NewClaims("user-1", "", "", "postboard", time.Hour), []byte("other"))
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "postboard"},
	})
	noExpiryToken, err := noExpiry.SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", wrongSecret},
		{"expired", good(func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour)) })},
		{"missing subject", good(func(c *Claims) { c.Subject = "" })},
		{"wrong issuer", good(func(c *Claims) { c.Issuer = "someone-else" })},
		{"no expiry", noExpiryToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Authenticate(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken), "expected ErrInvalidToken, got %v", err)
		})
	}
}

func TestAuthenticate_Missing(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	require.NoError(t, err)

	_, err = v.Authenticate(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestAuthenticate_ES256StaticKeys(t *testing.T) {
	key, jwks := newTestJWK(t, "key-1")
	keys, err := NewStaticKeySet(jwks)
	require.NoError(t, err)

	v, err := NewVerifier(Config{Keys: keys})
	require.NoError(t, err)

	token, err := SignWithJWK(NewClaims("user-2", "Bob", "", "", time.Hour), key)
	require.NoError(t, err)

	claims, err := v.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID())

	// HS256 is not accepted when only asymmetric keys are configured
	hsToken, err := SignHS256(NewClaims("user-2", "", "", "", time.Hour), testSecret)
	require.NoError(t, err)
	_, err = v.Authenticate(context.Background(), hsToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_UnknownKid(t *testing.T) {
	_, jwks := newTestJWK(t, "key-1")
	other, _ := newTestJWK(t, "key-2")

	keys, err := NewStaticKeySet(jwks)
	require.NoError(t, err)
	v, err := NewVerifier(Config{Keys: keys})
	require.NoError(t, err)

	token, err := SignWithJWK(NewClaims("user-2", "", "", "", time.Hour), other)
	require.NoError(t, err)

	_, err = v.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_HS256WithKidRejected(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, NewClaims("user-1", "", "", "", time.Hour))
	token.Header["kid"] = "key-1"
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)

	_, err = v.Authenticate(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoteKeySet(t *testing.T) {
	key, jwks := newTestJWK(t, "remote-1")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwks)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := NewRemoteKeySet(ctx, server.URL, time.Minute)
	require.NoError(t, err)

	v, err := NewVerifier(Config{Keys: keys})
	require.NoError(t, err)

	token, err := SignWithJWK(NewClaims("user-3", "", "", "", time.Hour), key)
	require.NoError(t, err)

	claims, err := v.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-3", claims.UserID())
}

func TestParseUnverified(t *testing.T) {
	token, err := SignHS256(NewClaims("user-9", "Carol", "https://img/c.png", "", time.Hour), []byte("whatever"))
	require.NoError(t, err)

	claims, err := ParseUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.Subject)
	assert.Equal(t, "Carol", claims.Name)

	_, err = ParseUnverified("nope")
	assert.Error(t, err)
}

func TestNewVerifier_RequiresKeyMaterial(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.Error(t, err)
}
