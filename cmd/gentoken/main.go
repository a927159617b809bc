package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"Postboard/internal/auth"
)

// gentoken issues a bearer token for local development
//
// Usage:
//
//	go run ./cmd/gentoken --user u1 --name Alice            # HS256 with JWT_SECRET
//	go run ./cmd/gentoken --user u1 --key signing-key.json  # ES256 with a JWK from cmd/genjwks
func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "gentoken",
		Usage: "issue a development bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "user id (sub claim)", Required: true},
			&cli.StringFlag{Name: "name", Usage: "display name claim"},
			&cli.StringFlag{Name: "avatar", Usage: "avatar URL claim"},
			&cli.StringFlag{Name: "issuer", Usage: "iss claim", EnvVars: []string{"JWT_ISSUER"}},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 24 * time.Hour},
			&cli.StringFlag{Name: "key", Usage: "private JWK file; when empty the shared secret is used"},
			&cli.StringFlag{Name: "secret", Usage: "HS256 shared secret", EnvVars: []string{"JWT_SECRET"}},
		},
		Action: issue,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func issue(c *cli.Context) error {
	claims := auth.NewClaims(c.String("user"), c.String("name"), c.String("avatar"), c.String("issuer"), c.Duration("ttl"))

	var token string
	var err error
	if keyFile := c.String("key"); keyFile != "" {
		data, readErr := os.ReadFile(keyFile)
		if readErr != nil {
			return fmt.Errorf("failed to read key file: %w", readErr)
		}
		key, parseErr := auth.ParsePrivateJWK(data)
		if parseErr != nil {
			return parseErr
		}
		token, err = auth.SignWithJWK(claims, key)
	} else {
		secret := c.String("secret")
		if secret == "" {
			return fmt.Errorf("no JWT_SECRET set; pass --secret or --key")
		}
		token, err = auth.SignHS256(claims, []byte(secret))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, token)
	return nil
}
