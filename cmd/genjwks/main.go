package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// genjwks generates an ES256 keypair for signing bearer tokens
// The private JWK is given to the token issuer (or cmd/gentoken); the public
// JWKS is served at the URL configured as JWT_JWKS_URL.
//
// Usage:
//
//	go run ./cmd/genjwks [--save]
//
// --save writes signing-key.json (private) and jwks.json (public) instead of printing them
func main() {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatalf("Failed to generate private key: %v", err)
	}

	key, err := jwk.FromRaw(privateKey)
	if err != nil {
		log.Fatalf("Failed to create JWK from private key: %v", err)
	}

	kid := "postboard-" + uuid.NewString()[:8]
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		log.Fatalf("Failed to set kid: %v", err)
	}
	if err := key.Set(jwk.AlgorithmKey, "ES256"); err != nil {
		log.Fatalf("Failed to set alg: %v", err)
	}
	if err := key.Set(jwk.KeyUsageKey, "sig"); err != nil {
		log.Fatalf("Failed to set use: %v", err)
	}

	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		log.Fatalf("Failed to derive public key: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		log.Fatalf("Failed to build JWKS: %v", err)
	}

	privateJSON, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal JWK: %v", err)
	}
	publicJSON, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal JWKS: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "--save" {
		if err := os.WriteFile("signing-key.json", privateJSON, 0o600); err != nil {
			log.Fatalf("Failed to write signing key: %v", err)
		}
		if err := os.WriteFile("jwks.json", publicJSON, 0o644); err != nil {
			log.Fatalf("Failed to write JWKS: %v", err)
		}
		fmt.Printf("Wrote signing-key.json (keep secret) and jwks.json (kid %s)\n", kid)
		return
	}

	fmt.Println("# Private signing key (keep secret, never commit):")
	fmt.Println(string(privateJSON))
	fmt.Println()
	fmt.Println("# Public JWKS (serve at JWT_JWKS_URL):")
	fmt.Println(string(publicJSON))
}
