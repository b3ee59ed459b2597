// Package msa implements the Microsoft OAuth→XBL→XSTS→game-token→profile
// chain: a linear state machine where each step consumes the previous
// step's output and every step's failure is classified into a uniform
// envelope.Envelope.
package msa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quasar/launchercore/internal/envelope"
)

var (
	tokenURL        = "https://login.microsoftonline.com/consumers/oauth2/v2.0/token"
	deviceCodeURL   = "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode"
	xboxUserAuthURL = "https://user.auth.xboxlive.com/user/authenticate"
	xstsAuthURL     = "https://xsts.auth.xboxlive.com/xsts/authorize"
	mcAuthURL       = "https://api.minecraftservices.com/authentication/login_with_xbox"
	mcProfileURL    = "https://api.minecraftservices.com/minecraft/profile"
)

// Client drives the five-hop authentication chain for a registered
// Microsoft application (clientID) and OAuth redirect URI.
type Client struct {
	httpClient  *http.Client
	clientID    string
	redirectURI string
}

// NewClient builds a Client for the given Azure AD application
// registration.
func NewClient(clientID, redirectURI string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		clientID:    clientID,
		redirectURI: redirectURI,
	}
}

// TokenResponse is step 1's output: a Microsoft OAuth access/refresh
// token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ExchangeAuthorizationCode is step 1 via an authorization-code grant,
// the result of the interactive browser consent flow.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code string) envelope.Envelope[TokenResponse] {
	form := url.Values{
		"client_id":    {c.clientID},
		"code":         {code},
		"grant_type":   {"authorization_code"},
		"redirect_uri": {c.redirectURI},
		"scope":        {"XboxLive.signin offline_access"},
	}
	return c.token(ctx, form)
}

// ExchangeRefreshToken is step 1 via a refresh-token grant, used to renew
// a session without reprompting the user.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) envelope.Envelope[TokenResponse] {
	form := url.Values{
		"client_id":     {c.clientID},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
		"scope":         {"XboxLive.signin offline_access"},
	}
	return c.token(ctx, form)
}

// DeviceCode is the response from starting the device-code flow: a code
// the user enters at VerificationURI, polled for completion.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

// RequestDeviceCode starts the device-code flow: an alternate entry
// point to step 1, for headless/console callers that can't open a
// browser.
func (c *Client) RequestDeviceCode(ctx context.Context) envelope.Envelope[DeviceCode] {
	form := url.Values{
		"client_id": {c.clientID},
		"scope":     {"XboxLive.signin offline_access"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deviceCodeURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return envelope.Err[DeviceCode](err, envelope.CodeUnknown)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope.Err[DeviceCode](err, envelope.CodeUnknown)
	}
	defer resp.Body.Close()

	var dc DeviceCode
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return envelope.Err[DeviceCode](fmt.Errorf("msa: device code request failed: %s", string(body)), envelope.CodeUnknown)
	}
	if err := json.NewDecoder(resp.Body).Decode(&dc); err != nil {
		return envelope.Err[DeviceCode](fmt.Errorf("msa: decoding device code response: %w", err), envelope.CodeUnknown)
	}
	return envelope.Ok(dc)
}

// PollDeviceCode polls the token endpoint until the user completes the
// device-code flow, it expires, or ctx is canceled.
func (c *Client) PollDeviceCode(ctx context.Context, dc DeviceCode) envelope.Envelope[TokenResponse] {
	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	form := url.Values{
		"client_id":   {c.clientID},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {dc.DeviceCode},
	}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return envelope.Err[TokenResponse](ctx.Err(), envelope.CodeUnknown)
		case <-time.After(interval):
		}

		env := c.token(ctx, form)
		if env.Status == envelope.StatusSuccess {
			return env
		}
		switch env.Error {
		case "authorization_pending":
			continue
		case "slow_down":
			interval += 5 * time.Second
			continue
		default:
			return env
		}
	}
	return envelope.Err[TokenResponse](fmt.Errorf("msa: timed out waiting for device-code authorization"), envelope.CodeUnknown)
}

func (c *Client) token(ctx context.Context, form url.Values) envelope.Envelope[TokenResponse] {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return envelope.Err[TokenResponse](err, envelope.CodeUnknown)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope.Err[TokenResponse](err, envelope.CodeUnknown)
	}
	defer resp.Body.Close()

	var result struct {
		TokenResponse
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return envelope.Err[TokenResponse](fmt.Errorf("msa: decoding token response: %w", err), envelope.CodeUnknown)
	}
	if result.Error != "" {
		return envelope.Envelope[TokenResponse]{Status: envelope.StatusError, Error: result.Error, ProviderCode: envelope.CodeUnknown}
	}
	return envelope.Ok(result.TokenResponse)
}
