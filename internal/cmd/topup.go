package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/thaithanhnhat/assistant-cli/internal/config"
	"github.com/thaithanhnhat/assistant-cli/internal/logging"
	"github.com/thaithanhnhat/assistant-cli/internal/watcher"
)

// DoTopUpVNPay runs the interactive VNPAY top-up: create the payment, open
// the browser, and wait for the return redirect on the local listener. The
// command can sit open for a while, so the config file is watched and base
// URL or debug changes apply live.
func DoTopUpVNPay(cfg *config.Config, configPath string, amount float64) {
	if amount <= 0 {
		log.Fatal("amount must be positive")
	}
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if configPath != "" {
		configWatcher, errWatch := watcher.NewWatcher(configPath, func(fresh *config.Config) {
			client.SetBaseURL(fresh.BaseURL)
			logging.ApplyLevel(fresh.Debug)
		})
		if errWatch != nil {
			log.Warnf("config watching disabled: %v", errWatch)
		} else if errStart := configWatcher.Start(ctx); errStart == nil {
			defer func() {
				_ = configWatcher.Stop()
			}()
		}
	}

	result, err := client.Payments.TopUpVNPay(ctx, amount)
	exitOnSessionError(err)

	if result.Success {
		log.Infof("Payment %s completed. Your balance will update shortly.", result.Ref)
	} else {
		log.Errorf("Payment %s was not completed (response code %s).", result.Ref, result.ResponseCode)
	}
}

// DoTopUpBNB creates a crypto deposit and prints the address to send to.
func DoTopUpBNB(cfg *config.Config, amount float64) {
	if amount <= 0 {
		log.Fatal("amount must be positive")
	}
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	deposit, err := client.Payments.CreateBNBDeposit(context.Background(), amount)
	exitOnSessionError(err)

	log.Infof("Send %.8f BNB to %s. Check progress with 'assistant payments'.", deposit.Amount, deposit.Address)
}

// DoListPayments prints the account's top-up history.
func DoListPayments(cfg *config.Config) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	records, err := client.Payments.History(context.Background())
	exitOnSessionError(err)

	if len(records) == 0 {
		log.Info("No payments yet.")
		return
	}
	for _, record := range records {
		fmt.Printf("%6d  %-8s  %12.2f  %-10s  %s\n",
			record.ID, record.Method, record.Amount, record.Status,
			record.CreatedAt.Format("2006-01-02 15:04"))
	}
}
