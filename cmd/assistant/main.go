// Command assistant is the admin CLI for the AI-assistant SaaS backend:
// sign in, manage shops and their bots, inspect orders, and top up the
// account balance.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/thaithanhnhat/assistant-cli/internal/cmd"
	"github.com/thaithanhnhat/assistant-cli/internal/config"
	"github.com/thaithanhnhat/assistant-cli/internal/logging"
)

const usage = `usage: assistant [-config path] <command> [flags]

commands:
  login             sign in and store the session
  logout            drop the stored session
  whoami            show the signed-in account and balance
  shops             list shops
  shop-create       create a shop
  report            order report for a shop (-shop)
  payments          list top-up history
  topup-vnpay       top up via VNPAY (-amount)
  topup-bnb         top up via BNB transfer (-amount)
  telegram-connect  connect a Telegram bot to a shop (-shop, -token)
  facebook-connect  connect a Facebook Messenger bot (-shop, -token)
`

func main() {
	logging.SetupBaseLogger()

	var configPath string
	flag.StringVar(&configPath, "config", "", "config file path")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}
	flag.Parse()

	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("failed to get working directory: %v", err)
		}
		configPath = filepath.Join(wd, "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.ApplyLevel(cfg.Debug)
	if err = logging.ConfigureLogOutput(cfg.LoggingToFile); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	command, rest := args[0], args[1:]
	sub := flag.NewFlagSet(command, flag.ExitOnError)
	email := sub.String("email", "", "account email")
	shopID := sub.Int64("shop", 0, "shop id")
	token := sub.String("token", "", "bot or page token")
	name := sub.String("name", "", "shop name")
	description := sub.String("description", "", "shop description")
	amount := sub.Float64("amount", 0, "top-up amount")
	_ = sub.Parse(rest)

	switch command {
	case "login":
		cmd.DoLogin(cfg, *email)
	case "logout":
		cmd.DoLogout(cfg)
	case "whoami":
		cmd.DoWhoami(cfg)
	case "shops":
		cmd.DoListShops(cfg)
	case "shop-create":
		cmd.DoCreateShop(cfg, *name, *description)
	case "report":
		requireShop(*shopID)
		cmd.DoShopReport(cfg, *shopID)
	case "payments":
		cmd.DoListPayments(cfg)
	case "topup-vnpay":
		cmd.DoTopUpVNPay(cfg, configPath, *amount)
	case "topup-bnb":
		cmd.DoTopUpBNB(cfg, *amount)
	case "telegram-connect":
		requireShop(*shopID)
		cmd.DoConnectTelegram(cfg, *shopID, *token)
	case "facebook-connect":
		requireShop(*shopID)
		cmd.DoConnectFacebook(cfg, *shopID, *token)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func requireShop(shopID int64) {
	if shopID <= 0 {
		log.Fatal("a shop id is required, pass -shop")
	}
}
