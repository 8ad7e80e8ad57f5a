package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/technosupport/arena-watch/internal/config"
	"github.com/technosupport/arena-watch/internal/tokens"
)

// Mints an operator token for settings changes:
//
//	go run ./cmd/token_gen -name arena-desk
func main() {
	name := flag.String("name", "operator", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (default from config)")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lifetime := cfg.Auth.TokenTTL()
	if *ttl > 0 {
		lifetime = *ttl
	}

	mgr := tokens.NewManager(cfg.Auth.SigningKey, lifetime)
	if !mgr.Enabled() {
		fmt.Fprintln(os.Stderr, "JWT_SIGNING_KEY (or auth.signing_key) is not set")
		os.Exit(1)
	}

	token, err := mgr.GenerateOperatorToken(*name)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).Format(time.RFC3339))
}
