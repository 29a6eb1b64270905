package assistant

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
)

// IntegrationService wires shops to messaging platforms: integration tokens,
// Telegram bot lifecycle, and the three-step Facebook Messenger setup.
type IntegrationService struct {
	client *Client
}

// Tokens lists the integration tokens of a shop.
func (s *IntegrationService) Tokens(ctx context.Context, shopID int64) ([]IntegrationToken, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) ([]IntegrationToken, error) {
		respBody, err := s.client.get(ctx, fmt.Sprintf("/api/integration/tokens?shopId=%d", shopID))
		if err != nil {
			return nil, err
		}
		var tokens []IntegrationToken
		if err = decode(respBody, &tokens); err != nil {
			return nil, err
		}
		return tokens, nil
	})
}

// SaveToken stores or replaces a platform token for a shop.
func (s *IntegrationService) SaveToken(ctx context.Context, shopID int64, platform, token string) (*IntegrationToken, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*IntegrationToken, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "shopId", shopID)
		body, _ = sjson.SetBytes(body, "platform", platform)
		body, _ = sjson.SetBytes(body, "token", token)
		respBody, err := s.client.post(ctx, "/api/integration/tokens", body)
		if err != nil {
			return nil, err
		}
		var saved IntegrationToken
		if err = decode(respBody, &saved); err != nil {
			return nil, err
		}
		return &saved, nil
	})
}

// DeleteToken removes an integration token.
func (s *IntegrationService) DeleteToken(ctx context.Context, tokenID int64) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		_, errDel := s.client.del(ctx, fmt.Sprintf("/api/integration/tokens/%d", tokenID))
		return struct{}{}, errDel
	})
	return err
}

// ConnectTelegram registers a Telegram bot token for a shop and returns the
// bot's state.
func (s *IntegrationService) ConnectTelegram(ctx context.Context, shopID int64, botToken string) (*TelegramBot, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*TelegramBot, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "shopId", shopID)
		body, _ = sjson.SetBytes(body, "token", botToken)
		respBody, err := s.client.post(ctx, "/api/telegram/connect", body)
		if err != nil {
			return nil, err
		}
		var bot TelegramBot
		if err = decode(respBody, &bot); err != nil {
			return nil, err
		}
		return &bot, nil
	})
}

// StartTelegram asks the backend to start the shop's bot process.
func (s *IntegrationService) StartTelegram(ctx context.Context, shopID int64) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		_, errPost := s.client.post(ctx, fmt.Sprintf("/api/telegram/%d/start", shopID), nil)
		return struct{}{}, errPost
	})
	return err
}

// StopTelegram asks the backend to stop the shop's bot process.
func (s *IntegrationService) StopTelegram(ctx context.Context, shopID int64) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		_, errPost := s.client.post(ctx, fmt.Sprintf("/api/telegram/%d/stop", shopID), nil)
		return struct{}{}, errPost
	})
	return err
}

// Facebook setup runs as three independent backend calls that must happen
// in order. The wizard tracks which step comes next so a failed run resumes
// where it stopped instead of repeating completed steps.
const (
	FacebookStepVerify    = 0
	FacebookStepSubscribe = 1
	FacebookStepActivate  = 2
	facebookStepDone      = 3
)

// FacebookWizard sequences the Messenger bot setup for one shop.
type FacebookWizard struct {
	service   *IntegrationService
	shopID    int64
	pageToken string
	step      int
}

// NewFacebookWizard starts a Messenger setup for the shop with the given
// page access token.
func (s *IntegrationService) NewFacebookWizard(shopID int64, pageToken string) *FacebookWizard {
	return &FacebookWizard{service: s, shopID: shopID, pageToken: pageToken}
}

// Step returns the next step to run.
func (w *FacebookWizard) Step() int {
	return w.step
}

// Done reports whether all steps completed.
func (w *FacebookWizard) Done() bool {
	return w.step >= facebookStepDone
}

// Next runs the upcoming step. On failure the step counter stays put, so
// calling Next again retries the same step.
func (w *FacebookWizard) Next(ctx context.Context) error {
	switch w.step {
	case FacebookStepVerify:
		if err := w.service.verifyFacebookPage(ctx, w.shopID, w.pageToken); err != nil {
			return fmt.Errorf("verify page token: %w", err)
		}
	case FacebookStepSubscribe:
		if err := w.service.subscribeFacebookWebhook(ctx, w.shopID); err != nil {
			return fmt.Errorf("subscribe webhook: %w", err)
		}
	case FacebookStepActivate:
		if err := w.service.activateFacebookBot(ctx, w.shopID); err != nil {
			return fmt.Errorf("activate bot: %w", err)
		}
	default:
		return nil
	}
	w.step++
	log.Debugf("facebook setup for shop %d advanced to step %d", w.shopID, w.step)
	return nil
}

// Run executes all remaining steps in order, stopping at the first failure.
func (w *FacebookWizard) Run(ctx context.Context) error {
	for !w.Done() {
		if err := w.Next(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *IntegrationService) verifyFacebookPage(ctx context.Context, shopID int64, pageToken string) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "shopId", shopID)
		body, _ = sjson.SetBytes(body, "pageToken", pageToken)
		_, errPost := s.client.post(ctx, "/api/facebook/verify", body)
		return struct{}{}, errPost
	})
	return err
}

func (s *IntegrationService) subscribeFacebookWebhook(ctx context.Context, shopID int64) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "shopId", shopID)
		_, errPost := s.client.post(ctx, "/api/facebook/subscribe", body)
		return struct{}{}, errPost
	})
	return err
}

func (s *IntegrationService) activateFacebookBot(ctx context.Context, shopID int64) error {
	_, err := withSession(ctx, s.client.sessions, func(ctx context.Context) (struct{}, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "shopId", shopID)
		_, errPost := s.client.post(ctx, "/api/facebook/activate", body)
		return struct{}{}, errPost
	})
	return err
}
