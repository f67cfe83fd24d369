// Command admin-token mints a bearer token for the /admin endpoints.
//
// Usage:
//
//	admin-token --subject=ops [--role=admin] [--ttl=24h]
//
// Requires AUTH_JWT_SECRET (and optionally AUTH_JWT_ISSUER) in the
// environment or a .env file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/heartmarshall/quotespell/internal/auth"
)

func main() {
	subject := flag.String("subject", "", "operator name recorded in the token")
	role := flag.String("role", auth.RoleAdmin, "role claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "Usage: admin-token --subject=ops [--role=admin] [--ttl=24h]")
		os.Exit(1)
	}

	_ = godotenv.Load()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if len(secret) < 32 {
		log.Fatal("AUTH_JWT_SECRET must be set and at least 32 characters")
	}
	issuer := os.Getenv("AUTH_JWT_ISSUER")
	if issuer == "" {
		issuer = "quotespell"
	}

	token, err := auth.NewJWTManager(secret, issuer, *ttl).GenerateToken(*subject, *role)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Println(token)
}
