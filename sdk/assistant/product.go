package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ProductService manages the products a shop offers through its bot.
type ProductService struct {
	client *Client
}

// List returns a shop's products.
func (s *ProductService) List(ctx context.Context, shopID int64) ([]Product, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) ([]Product, error) {
		respBody, err := s.client.get(ctx, fmt.Sprintf("/api/products?shopId=%d", shopID))
		if err != nil {
			return nil, err
		}
		var products []Product
		if err = decode(respBody, &products); err != nil {
			return nil, err
		}
		return products, nil
	})
}

// Create adds a product to a shop.
func (s *ProductService) Create(ctx context.Context, product Product) (*Product, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*Product, error) {
		body, err := json.Marshal(product)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal product: %w", err)
		}
		respBody, err := s.client.post(ctx, "/api/products", body)
		if err != nil {
			return nil, err
		}
		var created Product
		if err = decode(respBody, &created); err != nil {
			return nil, err
		}
		return &created, nil
	})
}

// Update applies the given field changes to a product.
func (s *ProductService) Update(ctx context.Context, productID int64, fields map[string]any) (*Product, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*Product, error) {
		body := []byte(`{}`)
		for key, value := range fields {
			body, _ = sjson.SetBytes(body, key, value)
		}
		respBody, err := s.client.put(ctx, fmt.Sprintf("/api/products/%d", productID), body)
		if err != nil {
			return nil, err
		}
		var updated Product
		if err = decode(respBody, &updated); err != nil {
			return nil, err
		}
		return &updated, nil
	})
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, productID int64) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		_, errDel := s.client.del(ctx, fmt.Sprintf("/api/products/%d", productID))
		return struct{}{}, errDel
	})
	return err
}

// GenerateImage asks the backend's AI image service for a product picture.
// These calls run on the longer image timeout and return the hosted URL.
func (s *ProductService) GenerateImage(ctx context.Context, productID int64, prompt string) (string, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (string, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "prompt", prompt)
		respBody, err := s.client.do(ctx, s.client.imageClient, http.MethodPost,
			fmt.Sprintf("/api/products/%d/generate-image", productID), body)
		if err != nil {
			return "", err
		}
		imageURL := gjson.GetBytes(respBody, "imageUrl").String()
		if imageURL == "" {
			return "", fmt.Errorf("image generation returned no URL")
		}
		return imageURL, nil
	})
}
