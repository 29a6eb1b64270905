package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/thaithanhnhat/assistant-cli/internal/config"
)

// DoListShops prints the account's shops.
func DoListShops(cfg *config.Config) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	shops, err := client.Shops.List(context.Background())
	exitOnSessionError(err)

	if len(shops) == 0 {
		log.Info("No shops yet. Create one with 'assistant shop-create'.")
		return
	}
	for _, shop := range shops {
		state := "inactive"
		if shop.Active {
			state = "active"
		}
		fmt.Printf("%6d  %-30s  %s\n", shop.ID, shop.Name, state)
	}
}

// DoCreateShop registers a new shop.
func DoCreateShop(cfg *config.Config, name, description string) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	if name == "" {
		name, err = prompt("Shop name: ")
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	shop, err := client.Shops.Create(context.Background(), name, description)
	exitOnSessionError(err)
	log.Infof("Created shop %d (%s).", shop.ID, shop.Name)
}

// DoShopReport prints the client-side order aggregation for a shop.
func DoShopReport(cfg *config.Config, shopID int64) {
	client, closeStore, err := newClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer closeStore()

	report, err := client.Orders.Report(context.Background(), shopID)
	exitOnSessionError(err)

	fmt.Printf("orders: %d   revenue: %.2f\n", report.TotalOrders, report.TotalRevenue)
	for status, count := range report.ByStatus {
		fmt.Printf("  %-10s %d\n", status, count)
	}
	for _, day := range report.Days {
		fmt.Printf("%s  %4d orders  %12.2f\n", day.Day, day.Orders, day.Revenue)
	}
}
