// token mints access tokens for local development. Sign-in normally happens
// at the identity provider; this signs the same claims with the shared secret.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	var (
		userID string
		role   string
		ttl    time.Duration
		secret string
		sse    bool
	)

	flagSet := pflag.NewFlagSet("token", pflag.ContinueOnError)
	flagSet.StringVarP(&userID, "user", "u", "", "user id the token is issued for (required)")
	flagSet.StringVarP(&role, "role", "r", string(auth.RoleUser), "role claim: user or admin")
	flagSet.DurationVar(&ttl, "ttl", time.Hour, "access token lifetime")
	flagSet.StringVar(&secret, "secret", os.Getenv("JWT_SECRET_KEY"), "signing secret (default $JWT_SECRET_KEY)")
	flagSet.BoolVar(&sse, "sse", false, "mint a short-lived stream token instead of an access token")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if secret == "" {
		return errors.New("--secret or JWT_SECRET_KEY is required")
	}

	session := auth.Session{UserID: userID, Role: auth.Role(role)}
	if err := session.Validate(); err != nil {
		return err
	}

	service := jwt.NewJWTService(secret, ttl.String(), nil)

	var token string
	var err error
	if sse {
		token, _, err = service.GenerateSSEToken(session)
	} else {
		token, _, err = service.GenerateAccessToken(session)
	}
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Println(token)
	return nil
}
