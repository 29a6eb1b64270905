// Package cmd provides the command implementations for the assistant CLI.
// Each command builds an SDK client over the persistent session store, runs
// one flow, and renders the outcome for the terminal.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/thaithanhnhat/assistant-cli/internal/config"
	"github.com/thaithanhnhat/assistant-cli/internal/session"
	"github.com/thaithanhnhat/assistant-cli/sdk/assistant"
)

// newClient opens the session database and builds an SDK client. The
// returned closer releases the database handle.
func newClient(cfg *config.Config) (*assistant.Client, func(), error) {
	dbPath, err := config.ExpandHome(cfg.SessionDB)
	if err != nil {
		return nil, nil, err
	}
	store, err := session.OpenBoltStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	client := assistant.New(cfg, store)
	return client, func() {
		if errClose := store.Close(); errClose != nil {
			log.Warnf("failed to close session store: %v", errClose)
		}
	}, nil
}

// prompt reads one line of input after printing a label.
func prompt(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// exitOnSessionError prints a login hint for session-terminal failures and
// exits; other errors are fatal-logged as-is. The CLI is the single place
// that decides what an unauthenticated user should do next.
func exitOnSessionError(err error) {
	if err == nil {
		return
	}
	if assistant.IsSessionError(err) {
		log.Error("Your session has expired. Run 'assistant login' to sign in again.")
		os.Exit(1)
	}
	log.Fatalf("%v", err)
}
