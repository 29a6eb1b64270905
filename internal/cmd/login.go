package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/thaithanhnhat/assistant-cli/internal/config"
)

// DoLogin signs the user in and persists the token pair.
func DoLogin(cfg *config.Config, email string) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	if email == "" {
		email, err = prompt("Email: ")
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	password, err := prompt("Password: ")
	if err != nil {
		log.Fatalf("%v", err)
	}

	user, err := client.Auth.Login(context.Background(), email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	if user != nil && user.Fullname != "" {
		log.Infof("Welcome back, %s!", user.Fullname)
	} else {
		log.Info("Login successful.")
	}
}

// DoLogout drops the local session.
func DoLogout(cfg *config.Config) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	if err = client.Auth.Logout(); err != nil {
		log.Fatalf("logout failed: %v", err)
	}
	log.Info("Logged out.")
}

// DoWhoami prints the current account, preferring a fresh profile fetch and
// falling back to the cached snapshot when offline.
func DoWhoami(cfg *config.Config) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	user, err := client.Profile.Get(context.Background())
	if err != nil {
		if cached := client.Profile.CachedUser(); cached != nil {
			log.Warnf("could not reach backend (%v), showing cached profile", err)
			log.Infof("%s <%s> (cached)", cached.Fullname, cached.Email)
			return
		}
		exitOnSessionError(err)
		return
	}
	log.Infof("%s <%s>  balance: %.2f", user.Fullname, user.Email, user.Balance)
}
