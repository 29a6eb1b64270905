package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"

	"github.com/thaithanhnhat/assistant-cli/internal/browser"
)

// PaymentService handles balance top-ups: BNB crypto deposits and the VNPAY
// browser flow, plus the payment history.
type PaymentService struct {
	client       *Client
	callbackPort int
}

// CreateBNBDeposit asks the backend for a deposit address for the given
// amount. The deposit is settled server-side once the transfer confirms.
func (s *PaymentService) CreateBNBDeposit(ctx context.Context, amount float64) (*BNBDeposit, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*BNBDeposit, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "amount", amount)
		respBody, err := s.client.post(ctx, "/api/payments/bnb", body)
		if err != nil {
			return nil, err
		}
		var deposit BNBDeposit
		if err = decode(respBody, &deposit); err != nil {
			return nil, err
		}
		return &deposit, nil
	})
}

// BNBDepositStatus polls a pending crypto deposit.
func (s *PaymentService) BNBDepositStatus(ctx context.Context, depositID int64) (*BNBDeposit, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*BNBDeposit, error) {
		respBody, err := s.client.get(ctx, fmt.Sprintf("/api/payments/bnb/%d", depositID))
		if err != nil {
			return nil, err
		}
		var deposit BNBDeposit
		if err = decode(respBody, &deposit); err != nil {
			return nil, err
		}
		return &deposit, nil
	})
}

// CreateVNPayPayment starts a VNPAY top-up. The returned PayURL must be
// opened in a browser; the gateway redirects the user back to returnURL when
// the payment finishes.
func (s *PaymentService) CreateVNPayPayment(ctx context.Context, amount float64, returnURL string) (*VNPayPayment, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*VNPayPayment, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "amount", amount)
		body, _ = sjson.SetBytes(body, "returnUrl", returnURL)
		respBody, err := s.client.post(ctx, "/api/vnpay/create-payment", body)
		if err != nil {
			return nil, err
		}
		var payment VNPayPayment
		if err = decode(respBody, &payment); err != nil {
			return nil, err
		}
		if payment.PayURL == "" {
			return nil, fmt.Errorf("vnpay response carried no payment URL")
		}
		return &payment, nil
	})
}

// History returns the account's past top-ups.
func (s *PaymentService) History(ctx context.Context) ([]PaymentRecord, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) ([]PaymentRecord, error) {
		respBody, err := s.client.get(ctx, "/api/payments")
		if err != nil {
			return nil, err
		}
		var records []PaymentRecord
		if err = decode(respBody, &records); err != nil {
			return nil, err
		}
		return records, nil
	})
}

// TopUpVNPay runs the whole interactive flow: create the payment, open the
// pay URL in the user's browser, and capture the return redirect on a local
// listener. The settlement itself stays server-side; only the redirect
// outcome is read here.
func (s *PaymentService) TopUpVNPay(ctx context.Context, amount float64) (*VNPayResult, error) {
	returnURL := fmt.Sprintf("http://localhost:%d/payment/return", s.callbackPort)
	payment, err := s.CreateVNPayPayment(ctx, amount, returnURL)
	if err != nil {
		return nil, err
	}

	resultChan := make(chan VNPayResult, 1)

	log.Infof("opening payment page for %.0f, ref %s", amount, payment.Ref)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/payment/return", func(c *gin.Context) {
		code := c.Query("vnp_ResponseCode")
		result := VNPayResult{
			Ref:          c.Query("vnp_TxnRef"),
			ResponseCode: code,
			Success:      code == "00",
		}
		if result.Success {
			c.String(http.StatusOK, "Payment successful! You can close this window.")
		} else {
			c.String(http.StatusOK, "Payment was not completed (code %s). You can close this window.", code)
		}
		select {
		case resultChan <- result:
		default:
		}
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", s.callbackPort), Handler: engine}
	go func() {
		if errServe := server.ListenAndServe(); !errors.Is(errServe, http.ErrServerClosed) {
			log.Errorf("payment return listener failed: %v", errServe)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if errOpen := browser.OpenURL(payment.PayURL); errOpen != nil {
		log.Errorf("Failed to open browser: %v. Please open the URL manually:\n\n%s\n", errOpen, payment.PayURL)
	}

	select {
	case result := <-resultChan:
		return &result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
