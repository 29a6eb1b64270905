// Package transport implements the authenticated request gateway: an
// http.RoundTripper that attaches the current session credentials to every
// outbound request and transparently recovers once from an expired access
// token by refreshing and replaying the original request.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/thaithanhnhat/assistant-cli/internal/apierr"
	"github.com/thaithanhnhat/assistant-cli/internal/session"
)

// maxErrorBody caps how much of an error response the gateway will buffer
// while inspecting the backend's machine code.
const maxErrorBody = 1 << 20

// AuthTransport decorates a base RoundTripper with the session contract.
//
// Per original request the flow is: attach header, send, and on a 401 whose
// body carries a token machine code, refresh once through the session
// manager and replay once. The replayed response is returned as-is, so a
// request can never be retried twice even against a misbehaving backend.
type AuthTransport struct {
	// Base performs the actual HTTP exchange. Defaults to
	// http.DefaultTransport when nil.
	Base http.RoundTripper

	// Sessions supplies credentials and owns the refresh lifecycle.
	Sessions *session.Manager
}

// NewAuthTransport wires an AuthTransport over base.
func NewAuthTransport(base http.RoundTripper, sessions *session.Manager) *AuthTransport {
	return &AuthTransport{Base: base, Sessions: sessions}
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Make the body replayable before the first send. Requests built with
	// bytes readers already carry GetBody; anything else is buffered here.
	if req.Body != nil && req.GetBody == nil {
		buf, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("transport: failed to buffer request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(buf))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	}

	out := req.Clone(req.Context())
	t.decorate(out)

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// A 401 is only recoverable when the backend names a token code.
	body, errRead := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	if errRead != nil {
		return nil, fmt.Errorf("transport: failed to read error response: %w", errRead)
	}
	code := gjson.GetBytes(body, "error").String()
	if !apierr.IsTokenCode(code) {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp, nil
	}

	if !t.Sessions.HasRefreshToken() {
		if errClear := t.Sessions.Clear(); errClear != nil {
			log.Warnf("transport: failed to clear session: %v", errClear)
		}
		return nil, session.ErrSessionExpired
	}

	log.Debugf("transport: %s %s rejected with %s, refreshing session", req.Method, req.URL.Path, code)
	if errRefresh := t.Sessions.Refresh(req.Context()); errRefresh != nil {
		return nil, errRefresh
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		replay, errBody := req.GetBody()
		if errBody != nil {
			return nil, fmt.Errorf("transport: failed to rewind request body: %w", errBody)
		}
		retry.Body = replay
	}
	t.decorate(retry)

	// The replayed response is final, whatever its status.
	return t.base().RoundTrip(retry)
}

// decorate attaches the authorization header and a request id. Requests sent
// with no stored token go out unauthenticated and the backend decides.
func (t *AuthTransport) decorate(req *http.Request) {
	if r := t.Sessions.Current(); r.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("%s %s", r.Type(), r.AccessToken))
	} else {
		req.Header.Del("Authorization")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
