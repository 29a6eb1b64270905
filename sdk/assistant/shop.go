package assistant

import (
	"context"
	"fmt"

	"github.com/tidwall/sjson"
)

// ShopService manages the account's AI chat storefronts.
type ShopService struct {
	client *Client
}

// List returns all shops owned by the account.
func (s *ShopService) List(ctx context.Context) ([]Shop, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) ([]Shop, error) {
		respBody, err := s.client.get(ctx, "/api/shops")
		if err != nil {
			return nil, err
		}
		var shops []Shop
		if err = decode(respBody, &shops); err != nil {
			return nil, err
		}
		return shops, nil
	})
}

// Get fetches a single shop.
func (s *ShopService) Get(ctx context.Context, shopID int64) (*Shop, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*Shop, error) {
		respBody, err := s.client.get(ctx, fmt.Sprintf("/api/shops/%d", shopID))
		if err != nil {
			return nil, err
		}
		var shop Shop
		if err = decode(respBody, &shop); err != nil {
			return nil, err
		}
		return &shop, nil
	})
}

// Create registers a new shop.
func (s *ShopService) Create(ctx context.Context, name, description string) (*Shop, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*Shop, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "name", name)
		body, _ = sjson.SetBytes(body, "description", description)
		respBody, err := s.client.post(ctx, "/api/shops", body)
		if err != nil {
			return nil, err
		}
		var shop Shop
		if err = decode(respBody, &shop); err != nil {
			return nil, err
		}
		return &shop, nil
	})
}

// Update applies the given field changes to a shop. Only the provided keys
// are sent, so unspecified fields keep their backend values.
func (s *ShopService) Update(ctx context.Context, shopID int64, fields map[string]any) (*Shop, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*Shop, error) {
		body := []byte(`{}`)
		for key, value := range fields {
			body, _ = sjson.SetBytes(body, key, value)
		}
		respBody, err := s.client.put(ctx, fmt.Sprintf("/api/shops/%d", shopID), body)
		if err != nil {
			return nil, err
		}
		var shop Shop
		if err = decode(respBody, &shop); err != nil {
			return nil, err
		}
		return &shop, nil
	})
}

// Delete removes a shop and everything attached to it.
func (s *ShopService) Delete(ctx context.Context, shopID int64) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		_, errDel := s.client.del(ctx, fmt.Sprintf("/api/shops/%d", shopID))
		return struct{}{}, errDel
	})
	return err
}
