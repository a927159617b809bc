package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm constants for JWT signing methods
const (
	AlgorithmHS256 = "HS256"
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
)

// clockSkew is the leeway applied to exp/nbf/iat checks
const clockSkew = 30 * time.Second

var (
	// ErrMissingToken is returned when no credential was presented
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken is returned for malformed, expired or badly signed tokens
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the JWT claims we care about
// The acting user's id is the standard 'sub' claim
type Claims struct {
	jwt.RegisteredClaims
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// UserID returns the subject of the token
func (c *Claims) UserID() string {
	return c.Subject
}

// KeySource resolves verification keys for asymmetric tokens
type KeySource interface {
	// LookupKey returns the public key for kid (an *ecdsa.PublicKey or *rsa.PublicKey)
	LookupKey(ctx context.Context, kid string) (interface{}, error)
}

// Config configures a Verifier; at least one of Secret or Keys must be set
type Config struct {
	Keys   KeySource // ES256/RS256 tokens, selected by 'kid'
	Issuer string    // optional required 'iss'
	Secret []byte    // HS256 tokens without 'kid'
}

// Verifier authenticates bearer tokens
type Verifier struct {
	keys   KeySource
	issuer string
	secret []byte
}

// NewVerifier creates a Verifier from cfg
func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.Secret) == 0 && cfg.Keys == nil {
		return nil, fmt.Errorf("token verification requires a shared secret or a key source")
	}
	return &Verifier{
		secret: cfg.Secret,
		keys:   cfg.Keys,
		issuer: cfg.Issuer,
	}, nil
}

// Authenticate verifies the token's signature and claims and returns the claims.
//
// SECURITY: tokens carrying a 'kid' must use asymmetric verification; HS256 is
// only accepted without 'kid'. This prevents algorithm confusion where a public
// key is reused as an HMAC secret.
func (v *Verifier) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	tokenString = stripBearerPrefix(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.validMethods()),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)

		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if kid != "" {
				return nil, fmt.Errorf("HS256 tokens with kid must use asymmetric verification")
			}
			if len(v.secret) == 0 {
				return nil, fmt.Errorf("HS256 verification not configured")
			}
			return v.secret, nil
		case *jwt.SigningMethodECDSA, *jwt.SigningMethodRSA:
			if v.keys == nil {
				return nil, fmt.Errorf("asymmetric verification not configured")
			}
			return v.keys.LookupKey(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token signature invalid", ErrInvalidToken)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing 'sub' claim (user id)", ErrInvalidToken)
	}

	return claims, nil
}

func (v *Verifier) validMethods() []string {
	var methods []string
	if len(v.secret) > 0 {
		methods = append(methods, AlgorithmHS256)
	}
	if v.keys != nil {
		methods = append(methods, AlgorithmES256, AlgorithmRS256)
	}
	return methods
}

// ParseUnverified decodes the claims without checking the signature.
// Only for clients displaying their own token; never for authorization.
func ParseUnverified(tokenString string) (*Claims, error) {
	tokenString = stripBearerPrefix(tokenString)

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing 'sub' claim (user id)")
	}
	return claims, nil
}

// NewClaims builds claims for userID valid for ttl
func NewClaims(userID, name, avatar, issuer string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:   name,
		Avatar: avatar,
	}
}

// SignHS256 signs claims with a shared secret
func SignHS256(claims *Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("secret is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// stripBearerPrefix removes the "Bearer " prefix from a token string
func stripBearerPrefix(tokenString string) string {
	tokenString = strings.TrimSpace(tokenString)
	if len(tokenString) >= 7 && strings.EqualFold(tokenString[:7], "Bearer ") {
		tokenString = tokenString[7:]
	}
	return strings.TrimSpace(tokenString)
}
