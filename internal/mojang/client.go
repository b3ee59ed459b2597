// Package mojang implements the legacy Yggdrasil authentication scheme:
// authenticate, validate, refresh, invalidate, plus service status
// aggregation. Every authentication operation returns a uniform
// envelope.Envelope; Status returns a plain per-service color map.
package mojang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/quasar/launchercore/internal/envelope"
)

const defaultBaseURL = "https://authserver.mojang.com"

// Client wraps outbound Yggdrasil requests and classifies failures into
// envelope.ProviderCode values.
type Client struct {
	httpClient *http.Client
	baseURL    string
	statusURL  string
}

// NewClient builds a Client with the module's standard per-request
// timeout discipline (5s connect, 15s total), matching the Download
// Engine's client configuration.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
		baseURL:   defaultBaseURL,
		statusURL: defaultStatusURL,
	}
}

// Agent identifies the game client to the Yggdrasil server.
type Agent struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

var defaultAgent = Agent{Name: "Minecraft", Version: 1}

// Profile is the selected game profile returned by authenticate/refresh.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is the shared shape authenticate and refresh both return.
type Session struct {
	AccessToken     string          `json:"accessToken"`
	ClientToken     string          `json:"clientToken"`
	SelectedProfile Profile         `json:"selectedProfile"`
	User            json.RawMessage `json:"user,omitempty"`
}

type authenticateRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	ClientToken string `json:"clientToken,omitempty"`
	RequestUser bool   `json:"requestUser"`
	Agent       Agent  `json:"agent"`
}

// Authenticate logs in with a Mojang username/password pair. clientToken
// may be empty, letting the server mint one.
func (c *Client) Authenticate(ctx context.Context, username, password, clientToken string) envelope.Envelope[Session] {
	body := authenticateRequest{
		Username:    username,
		Password:    password,
		ClientToken: clientToken,
		RequestUser: true,
		Agent:       defaultAgent,
	}

	var session Session
	if code, err := c.post(ctx, "/authenticate", body, &session); err != nil {
		return envelope.Err[Session](err, code)
	}
	return envelope.Ok(session)
}

type tokenRequest struct {
	AccessToken string `json:"accessToken"`
	ClientToken string `json:"clientToken"`
	RequestUser bool   `json:"requestUser,omitempty"`
}

// Validate reports whether accessToken/clientToken still form a valid
// session. A 403 response is a SUCCESS envelope carrying false: the
// server answered the question, it just answered "no".
func (c *Client) Validate(ctx context.Context, accessToken, clientToken string) envelope.Envelope[bool] {
	body := tokenRequest{AccessToken: accessToken, ClientToken: clientToken}

	status, code, err := c.postStatus(ctx, "/validate", body)
	if err != nil {
		return envelope.Err[bool](err, code)
	}
	switch status {
	case http.StatusNoContent:
		return envelope.Ok(true)
	case http.StatusForbidden:
		return envelope.Ok(false)
	default:
		return envelope.Err[bool](fmt.Errorf("mojang: unexpected validate status %d", status), envelope.CodeUnknown)
	}
}

// Invalidate revokes accessToken/clientToken.
func (c *Client) Invalidate(ctx context.Context, accessToken, clientToken string) envelope.Envelope[struct{}] {
	body := tokenRequest{AccessToken: accessToken, ClientToken: clientToken}
	if code, err := c.post(ctx, "/invalidate", body, nil); err != nil {
		return envelope.Err[struct{}](err, code)
	}
	return envelope.Ok(struct{}{})
}

// Refresh exchanges a still-valid accessToken/clientToken pair for a new
// session, keeping the same selected profile.
func (c *Client) Refresh(ctx context.Context, accessToken, clientToken string) envelope.Envelope[Session] {
	body := tokenRequest{AccessToken: accessToken, ClientToken: clientToken, RequestUser: true}

	var session Session
	if code, err := c.post(ctx, "/refresh", body, &session); err != nil {
		return envelope.Err[Session](err, code)
	}
	return envelope.Ok(session)
}

// post issues a POST with a JSON body, decoding a 2xx JSON response into
// out (skipped if out is nil, e.g. /invalidate's empty 204 body), and
// classifying any failure into a provider code.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) (envelope.ProviderCode, error) {
	status, respBody, err := c.do(ctx, path, body)
	if err != nil {
		return classifyTransportError(err), err
	}
	if status >= 200 && status < 300 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return envelope.CodeUnknown, fmt.Errorf("mojang: decoding response: %w", err)
			}
		}
		return envelope.CodeNone, nil
	}
	return classifyErrorBody(respBody)
}

// postStatus is like post, but also returns the raw status code for
// callers (Validate) that need to branch on it directly.
func (c *Client) postStatus(ctx context.Context, path string, body interface{}) (int, envelope.ProviderCode, error) {
	status, respBody, err := c.do(ctx, path, body)
	if err != nil {
		return 0, classifyTransportError(err), err
	}
	if status >= 200 && status < 300 || status == http.StatusForbidden {
		return status, envelope.CodeNone, nil
	}
	code, classifyErr := classifyErrorBody(respBody)
	return status, code, classifyErr
}

func (c *Client) do(ctx context.Context, path string, body interface{}) (int, []byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("mojang: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, fmt.Errorf("mojang: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("mojang: request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return 0, nil, fmt.Errorf("mojang: reading response body: %w", err)
	}
	return resp.StatusCode, buf.Bytes(), nil
}
