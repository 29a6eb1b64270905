// Package assistant is the Go client for the AI-assistant SaaS backend. It
// owns the client side of the authentication contract: tokens live in a
// session store, every authenticated request goes through the gateway
// transport that recovers once from an expired access token, and each
// feature service additionally verifies session freshness before touching
// the network.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/thaithanhnhat/assistant-cli/internal/apierr"
	"github.com/thaithanhnhat/assistant-cli/internal/config"
	"github.com/thaithanhnhat/assistant-cli/internal/session"
	"github.com/thaithanhnhat/assistant-cli/internal/transport"
	"github.com/thaithanhnhat/assistant-cli/internal/util"
)

// Client talks to the assistant backend. All feature services share one
// authenticated HTTP client; unauthenticated auth endpoints (login, refresh,
// register) use a bare client so a refresh can never recurse through the
// gateway.
type Client struct {
	mu      sync.RWMutex
	baseURL string

	// httpClient carries the gateway transport and the ordinary timeout.
	httpClient *http.Client
	// imageClient shares the gateway transport with the longer budget AI
	// image generation needs.
	imageClient *http.Client
	// bareClient performs unauthenticated calls (login, refresh).
	bareClient *http.Client

	sessions *session.Manager

	Auth         *AuthService
	Profile      *ProfileService
	Shops        *ShopService
	Products     *ProductService
	Orders       *OrderService
	Customers    *CustomerService
	Payments     *PaymentService
	Integrations *IntegrationService
}

// New builds a Client from configuration and a session store. The session
// manager's refresh exchange is wired to the backend's refresh endpoint.
func New(cfg *config.Config, store session.Store) *Client {
	sessions := session.NewManager(store)

	proxied := util.SetProxy(cfg, &http.Client{})
	gateway := transport.NewAuthTransport(proxied.Transport, sessions)

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Transport: gateway, Timeout: time.Duration(cfg.RequestTimeout) * time.Second},
		imageClient: &http.Client{Transport: gateway, Timeout: time.Duration(cfg.ImageTimeout) * time.Second},
		bareClient:  &http.Client{Transport: proxied.Transport, Timeout: time.Duration(cfg.RequestTimeout) * time.Second},
		sessions:    sessions,
	}

	c.Auth = &AuthService{client: c}
	c.Profile = &ProfileService{client: c}
	c.Shops = &ShopService{client: c}
	c.Products = &ProductService{client: c}
	c.Orders = &OrderService{client: c}
	c.Customers = &CustomerService{client: c}
	c.Payments = &PaymentService{client: c, callbackPort: cfg.CallbackPort}
	c.Integrations = &IntegrationService{client: c}

	sessions.SetRefreshFunc(c.Auth.refreshRecord)

	return c
}

// Sessions exposes the session manager for callers that need freshness
// queries or an explicit logout.
func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

// BaseURL returns the current backend root.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL swaps the backend root, used by config hot reload.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// do performs one JSON API call with the given client and returns the raw
// response body. Errors come back normalized: session sentinels pass through
// untouched, transport failures map to the connectivity message, and error
// statuses map to a structured apierr.Error.
func (c *Client) do(ctx context.Context, httpClient *http.Client, method, path string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		// The gateway surfaces session-terminal failures as sentinels,
		// wrapped by the http client in a *url.Error.
		if errors.Is(err, session.ErrSessionExpired) {
			return nil, session.ErrSessionExpired
		}
		if errors.Is(err, session.ErrNoSession) {
			return nil, session.ErrNoSession
		}
		log.Debugf("%s %s: %v", method, path, err)
		return nil, apierr.FromTransport(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierr.FromResponse(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// get/post/put/del are the JSON verbs over do with the ordinary timeout.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, c.httpClient, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, c.httpClient, http.MethodPost, path, body)
}

func (c *Client) put(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, c.httpClient, http.MethodPut, path, body)
}

func (c *Client) del(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, c.httpClient, http.MethodDelete, path, nil)
}

// decode unmarshals a response body into out.
func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// IsSessionError reports whether err means the user must sign in again,
// either because no session exists or because it could not be refreshed.
func IsSessionError(err error) bool {
	return errors.Is(err, session.ErrSessionExpired) || errors.Is(err, session.ErrNoSession)
}

// withSession is the secured-call guard every feature service uses: verify
// the session proactively (refreshing when expired), delegate, and convert
// any auth-shaped failure of the call itself into a session-expired result
// after clearing the store. The reactive retry inside the gateway still runs
// underneath; this guard covers tokens that expire before the request and
// backends that reject a token the gateway could not recover.
func withSession[T any](ctx context.Context, sessions *session.Manager, call func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := sessions.EnsureValid(ctx); err != nil {
		return zero, err
	}
	out, err := call(ctx)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, session.ErrSessionExpired) || errors.Is(err, session.ErrNoSession) {
		return zero, err
	}
	if apierr.IsAuth(err) {
		if errClear := sessions.Clear(); errClear != nil {
			log.Warnf("failed to clear session: %v", errClear)
		}
		return zero, fmt.Errorf("%w: %v", session.ErrSessionExpired, err)
	}
	return zero, err
}
