package msa

import (
	"context"
	"errors"

	"github.com/quasar/launchercore/internal/envelope"
)

// Result is the end-to-end product of a successful chain run: the
// Minecraft session plus the refresh token needed to renew it later.
type Result struct {
	GameAccessToken string
	ExpiresIn       int
	RefreshToken    string
	Profile         Profile
}

// LoginWithAuthorizationCode runs the full five-hop chain starting from
// an interactive authorization code. Each step's failure short-circuits
// the chain, surfacing that step's classified envelope.
func (c *Client) LoginWithAuthorizationCode(ctx context.Context, code string) envelope.Envelope[Result] {
	tokenEnv := c.ExchangeAuthorizationCode(ctx, code)
	if tokenEnv.Status != envelope.StatusSuccess {
		return envelope.Err[Result](errors.New(tokenEnv.Error), tokenEnv.ProviderCode)
	}
	return c.continueChain(ctx, tokenEnv.Data)
}

// LoginWithRefreshToken runs the full chain starting from a stored
// refresh token, renewing a previously-established session.
func (c *Client) LoginWithRefreshToken(ctx context.Context, refreshToken string) envelope.Envelope[Result] {
	tokenEnv := c.ExchangeRefreshToken(ctx, refreshToken)
	if tokenEnv.Status != envelope.StatusSuccess {
		return envelope.Err[Result](errors.New(tokenEnv.Error), tokenEnv.ProviderCode)
	}
	return c.continueChain(ctx, tokenEnv.Data)
}

// LoginWithDeviceCode runs the full chain starting from a device code
// obtained via RequestDeviceCode, blocking until the user completes
// authorization, the code expires, or ctx is canceled.
func (c *Client) LoginWithDeviceCode(ctx context.Context, dc DeviceCode) envelope.Envelope[Result] {
	tokenEnv := c.PollDeviceCode(ctx, dc)
	if tokenEnv.Status != envelope.StatusSuccess {
		return envelope.Err[Result](errors.New(tokenEnv.Error), tokenEnv.ProviderCode)
	}
	return c.continueChain(ctx, tokenEnv.Data)
}

func (c *Client) continueChain(ctx context.Context, msaToken TokenResponse) envelope.Envelope[Result] {
	xblEnv := c.AuthenticateXBL(ctx, msaToken.AccessToken)
	if xblEnv.Status != envelope.StatusSuccess {
		return envelope.Err[Result](errors.New(xblEnv.Error), xblEnv.ProviderCode)
	}

	xstsEnv := c.AuthenticateXSTS(ctx, xblEnv.Data.Token)
	if xstsEnv.Status != envelope.StatusSuccess {
		return envelope.Err[Result](errors.New(xstsEnv.Error), xstsEnv.ProviderCode)
	}

	gameEnv := c.LoginWithXbox(ctx, xstsEnv.Data.UHS(), xstsEnv.Data.Token)
	if gameEnv.Status != envelope.StatusSuccess {
		return envelope.Err[Result](errors.New(gameEnv.Error), gameEnv.ProviderCode)
	}

	profileEnv := c.FetchProfile(ctx, gameEnv.Data.AccessToken)
	if profileEnv.Status != envelope.StatusSuccess {
		return envelope.Err[Result](errors.New(profileEnv.Error), profileEnv.ProviderCode)
	}

	return envelope.Ok(Result{
		GameAccessToken: gameEnv.Data.AccessToken,
		ExpiresIn:       gameEnv.Data.ExpiresIn,
		RefreshToken:    msaToken.RefreshToken,
		Profile:         profileEnv.Data,
	})
}

