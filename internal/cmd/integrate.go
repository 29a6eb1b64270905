package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/thaithanhnhat/assistant-cli/internal/config"
	"github.com/thaithanhnhat/assistant-cli/sdk/assistant"
)

// DoConnectTelegram links a Telegram bot token to a shop and starts the bot.
func DoConnectTelegram(cfg *config.Config, shopID int64, botToken string) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	if botToken == "" {
		botToken, err = prompt("Telegram bot token: ")
		if err != nil {
			log.Fatalf("%v", err)
		}
	}

	ctx := context.Background()
	bot, err := client.Integrations.ConnectTelegram(ctx, shopID, botToken)
	exitOnSessionError(err)

	if !bot.Running {
		if err = client.Integrations.StartTelegram(ctx, shopID); err != nil {
			exitOnSessionError(err)
		}
	}
	log.Infof("Telegram bot @%s is connected to shop %d.", bot.Username, shopID)
}

// DoConnectFacebook runs the three-step Messenger setup for a shop.
func DoConnectFacebook(cfg *config.Config, shopID int64, pageToken string) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	if pageToken == "" {
		pageToken, err = prompt("Facebook page access token: ")
		if err != nil {
			log.Fatalf("%v", err)
		}
	}

	wizard := client.Integrations.NewFacebookWizard(shopID, pageToken)
	if err = wizard.Run(context.Background()); err != nil {
		if assistant.IsSessionError(err) {
			exitOnSessionError(err)
		}
		log.Fatalf("facebook setup stopped at step %d: %v", wizard.Step(), err)
	}
	log.Infof("Facebook Messenger bot is active for shop %d.", shopID)
}
