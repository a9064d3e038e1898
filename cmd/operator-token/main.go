// Command operator-token mints a signed operator token for the admin routes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgs-intellisol/nexuscrux-website/internal/auth"
	appconfig "github.com/dgs-intellisol/nexuscrux-website/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	if err := run(os.Args[1:], cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, cfg *appconfig.Config, out io.Writer) error {
	fs := flag.NewFlagSet("operator-token", flag.ContinueOnError)
	subject := fs.String("subject", "", "operator identity, usually an email address")
	role := fs.String("role", string(auth.RoleViewer), "viewer or editor")
	ttl := fs.Duration("ttl", cfg.AdminTokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("-subject is required")
	}
	r, err := auth.ParseRole(*role)
	if err != nil {
		return err
	}
	if cfg.AdminJWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is required")
	}

	token, claims, err := auth.NewTokenIssuer(cfg.AdminJWTSecret, cfg.AdminTokenTTL).Issue(*subject, r, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	fmt.Fprintf(os.Stderr, "jti=%s role=%s expires=%s\n", claims.ID, claims.Role, claims.ExpiresAt.Time.Format(time.RFC3339))
	return nil
}
