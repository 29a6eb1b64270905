package assistant

import (
	"context"
	"fmt"

	"github.com/tidwall/sjson"
)

// OrderService reads and advances orders placed through a shop's bot.
type OrderService struct {
	client *Client
}

// List returns all orders for a shop. The backend serves the full set; the
// report helpers in report.go aggregate it client-side.
func (s *OrderService) List(ctx context.Context, shopID int64) ([]Order, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) ([]Order, error) {
		respBody, err := s.client.get(ctx, fmt.Sprintf("/api/orders?shopId=%d", shopID))
		if err != nil {
			return nil, err
		}
		var orders []Order
		if err = decode(respBody, &orders); err != nil {
			return nil, err
		}
		return orders, nil
	})
}

// Get fetches a single order.
func (s *OrderService) Get(ctx context.Context, orderID int64) (*Order, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*Order, error) {
		respBody, err := s.client.get(ctx, fmt.Sprintf("/api/orders/%d", orderID))
		if err != nil {
			return nil, err
		}
		var order Order
		if err = decode(respBody, &order); err != nil {
			return nil, err
		}
		return &order, nil
	})
}

// UpdateStatus moves an order to a new status.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*Order, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*Order, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "status", status)
		respBody, err := s.client.put(ctx, fmt.Sprintf("/api/orders/%d/status", orderID), body)
		if err != nil {
			return nil, err
		}
		var order Order
		if err = decode(respBody, &order); err != nil {
			return nil, err
		}
		return &order, nil
	})
}

// Report fetches a shop's orders and aggregates them locally.
func (s *OrderService) Report(ctx context.Context, shopID int64) (*Report, error) {
	orders, err := s.List(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return BuildReport(orders), nil
}
