package assistant

import (
	"context"
	"fmt"
)

// CustomerService reads the chat users collected by a shop's bots.
type CustomerService struct {
	client *Client
}

// List returns a shop's customers.
func (s *CustomerService) List(ctx context.Context, shopID int64) ([]Customer, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) ([]Customer, error) {
		respBody, err := s.client.get(ctx, fmt.Sprintf("/api/customers?shopId=%d", shopID))
		if err != nil {
			return nil, err
		}
		var customers []Customer
		if err = decode(respBody, &customers); err != nil {
			return nil, err
		}
		return customers, nil
	})
}

// Get fetches a single customer.
func (s *CustomerService) Get(ctx context.Context, customerID int64) (*Customer, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*Customer, error) {
		respBody, err := s.client.get(ctx, fmt.Sprintf("/api/customers/%d", customerID))
		if err != nil {
			return nil, err
		}
		var customer Customer
		if err = decode(respBody, &customer); err != nil {
			return nil, err
		}
		return &customer, nil
	})
}

// Delete removes a customer record.
func (s *CustomerService) Delete(ctx context.Context, customerID int64) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		_, errDel := s.client.del(ctx, fmt.Sprintf("/api/customers/%d", customerID))
		return struct{}{}, errDel
	})
	return err
}
