// Command slacksign prints the Slack signing headers for a request body so a
// running bridge can be exercised with curl.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sipeed/slackbridge/pkg/config"
	"github.com/sipeed/slackbridge/pkg/signature"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("SLACKBRIDGE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	secret := flag.String("secret", cfg.Slack.SigningSecret, "Slack signing secret (default SLACK_SIGNING_SECRET)")
	bodyFile := flag.String("body", "", "File containing request body (or use stdin)")
	ts := flag.Int64("ts", 0, "Unix timestamp to sign with (default now)")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "Usage: slacksign [-secret <signing-secret>] [-body <file>] [-ts <unix-seconds>]")
		fmt.Fprintln(os.Stderr, "  Reads body from stdin if -body not specified")
		os.Exit(1)
	}

	body, err := readBody(*bodyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read body: %v\n", err)
		os.Exit(1)
	}

	timestamp := *ts
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	fmt.Printf("X-Slack-Request-Timestamp: %d\n", timestamp)
	fmt.Printf("X-Slack-Signature: %s\n", signature.Sign(*secret, timestamp, body))
}

func readBody(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	body, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("body file %s does not exist", path)
	}
	return body, err
}
