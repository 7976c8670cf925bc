package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"twitch-notify-relay/auth"
	"twitch-notify-relay/tokens"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	_ = godotenv.Load()

	clientID := strings.TrimSpace(os.Getenv("TWITCH_CLIENT_ID"))
	if clientID == "" {
		log.Fatal("TWITCH_CLIENT_ID is required")
	}

	clientSecret := strings.TrimSpace(os.Getenv("TWITCH_CLIENT_SECRET"))
	if clientSecret == "" {
		log.Fatal("TWITCH_CLIENT_SECRET is required")
	}

	conf := auth.NewOAuthConfig(clientID, clientSecret, os.Getenv("TWITCH_REDIRECT_URL"))
	store := tokens.FileStore{Path: os.Getenv("TOKENS_FILE")}

	switch os.Args[1] {
	case "url":
		fmt.Println(auth.AuthorizeURL(conf, uuid.NewString()))
	case "exchange":
		if len(os.Args) < 3 {
			usage()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		creds, err := auth.Exchange(ctx, conf, os.Args[2])
		if err != nil {
			log.Fatalf("exchange code: %v", err)
		}
		if err := store.Save(creds); err != nil {
			log.Fatalf("save tokens: %v", err)
		}

		expiry := "unknown"
		if creds.Expiry != nil {
			expiry = creds.Expiry.Format(time.RFC3339)
		}
		fmt.Printf("ok, expires at %s\n", expiry)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: twitch-auth url | twitch-auth exchange <code>")
	os.Exit(1)
}
