package msa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quasar/launchercore/internal/envelope"
)

// xboxAuthRequest is the shared request shape for the XBL and XSTS hops.
type xboxAuthRequest struct {
	Properties   xboxAuthProperties `json:"Properties"`
	RelyingParty string             `json:"RelyingParty"`
	TokenType    string             `json:"TokenType"`
}

type xboxAuthProperties struct {
	AuthMethod string   `json:"AuthMethod,omitempty"`
	SiteName   string   `json:"SiteName,omitempty"`
	RpsTicket  string   `json:"RpsTicket,omitempty"`
	SandboxID  string   `json:"SandboxId,omitempty"`
	UserTokens []string `json:"UserTokens,omitempty"`
}

// XboxToken is the shared response shape for the XBL and XSTS hops.
type XboxToken struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UHS string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
	IssueInstant string `json:"IssueInstant"`
	NotAfter     string `json:"NotAfter"`
	XErr         int64  `json:"XErr,omitempty"`
}

// UHS returns the user hash carried in the first display claim, or "" if
// none is present.
func (t XboxToken) UHS() string {
	if len(t.DisplayClaims.XUI) == 0 {
		return ""
	}
	return t.DisplayClaims.XUI[0].UHS
}

// AuthenticateXBL is step 2: exchange a Microsoft access token for an
// Xbox Live user token.
func (c *Client) AuthenticateXBL(ctx context.Context, msaAccessToken string) envelope.Envelope[XboxToken] {
	body := xboxAuthRequest{
		Properties: xboxAuthProperties{
			AuthMethod: "RPS",
			SiteName:   "user.auth.xboxlive.com",
			RpsTicket:  "d=" + msaAccessToken,
		},
		RelyingParty: "http://auth.xboxlive.com",
		TokenType:    "JWT",
	}
	return c.xboxAuth(ctx, xboxUserAuthURL, body, classifyXboxToken)
}

// AuthenticateXSTS is step 3: exchange the XBL token for an XSTS token
// scoped to the Minecraft relying party.
func (c *Client) AuthenticateXSTS(ctx context.Context, xblToken string) envelope.Envelope[XboxToken] {
	body := xboxAuthRequest{
		Properties: xboxAuthProperties{
			SandboxID:  "RETAIL",
			UserTokens: []string{xblToken},
		},
		RelyingParty: "rp://api.minecraftservices.com/",
		TokenType:    "JWT",
	}
	return c.xboxAuth(ctx, xstsAuthURL, body, classifyXboxToken)
}

func (c *Client) xboxAuth(ctx context.Context, url string, body xboxAuthRequest, classify func(XboxToken, int) envelope.ProviderCode) envelope.Envelope[XboxToken] {
	encoded, err := json.Marshal(body)
	if err != nil {
		return envelope.Err[XboxToken](err, envelope.CodeUnknown)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return envelope.Err[XboxToken](err, envelope.CodeUnknown)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-xbl-contract-version", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope.Err[XboxToken](err, envelope.CodeUnknown)
	}
	defer resp.Body.Close()

	var token XboxToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return envelope.Err[XboxToken](fmt.Errorf("msa: decoding xbox response: %w", err), envelope.CodeUnknown)
	}

	if resp.StatusCode != http.StatusOK || token.XErr != 0 {
		code := classify(token, resp.StatusCode)
		return envelope.Err[XboxToken](fmt.Errorf("msa: xbox auth failed (status %d, XErr %d)", resp.StatusCode, token.XErr), code)
	}
	return envelope.Ok(token)
}

// classifyXboxToken maps XErr per spec §4.5.2's known set. XBL and XSTS
// share the identical response shape (XboxToken) and can legitimately
// carry the same XErr codes at either hop, so both AuthenticateXBL and
// AuthenticateXSTS classify through this one table.
func classifyXboxToken(token XboxToken, _ int) envelope.ProviderCode {
	switch token.XErr {
	case 2148916233:
		return envelope.CodeNoXboxAccount
	case 2148916235:
		return envelope.CodeXBLBanned
	case 2148916238:
		return envelope.CodeUnder18
	default:
		return envelope.CodeUnknown
	}
}

type minecraftAuthRequest struct {
	IdentityToken string `json:"identityToken"`
}

// GameToken is step 4's output: the Minecraft-scoped access token.
type GameToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// LoginWithXbox is step 4: exchange the XSTS token and user hash for a
// Minecraft Services access token.
func (c *Client) LoginWithXbox(ctx context.Context, uhs, xstsToken string) envelope.Envelope[GameToken] {
	body := minecraftAuthRequest{IdentityToken: fmt.Sprintf("XBL3.0 x=%s;%s", uhs, xstsToken)}
	encoded, err := json.Marshal(body)
	if err != nil {
		return envelope.Err[GameToken](err, envelope.CodeUnknown)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mcAuthURL, bytes.NewReader(encoded))
	if err != nil {
		return envelope.Err[GameToken](err, envelope.CodeUnknown)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope.Err[GameToken](err, envelope.CodeUnknown)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return envelope.Err[GameToken](fmt.Errorf("msa: minecraft login failed (%d)", resp.StatusCode), envelope.CodeUnknown)
	}
	var token GameToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return envelope.Err[GameToken](fmt.Errorf("msa: decoding game token response: %w", err), envelope.CodeUnknown)
	}
	return envelope.Ok(token)
}

// Skin is one entry of a profile's skins/capes list.
type Skin struct {
	ID      string `json:"id"`
	State   string `json:"state"`
	URL     string `json:"url"`
	Variant string `json:"variant"`
}

// Profile is step 5's output: the player's Minecraft identity.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Skins []Skin `json:"skins"`
	Capes []Skin `json:"capes"`
}

type profileError struct {
	Path      string `json:"path"`
	ErrorType string `json:"errorType"`
}

// FetchProfile is step 5: resolve the bearer game token into a player
// profile.
func (c *Client) FetchProfile(ctx context.Context, gameAccessToken string) envelope.Envelope[Profile] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mcProfileURL, nil)
	if err != nil {
		return envelope.Err[Profile](err, envelope.CodeUnknown)
	}
	req.Header.Set("Authorization", "Bearer "+gameAccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope.Err[Profile](err, envelope.CodeUnknown)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var perr profileError
		json.NewDecoder(resp.Body).Decode(&perr)
		code := envelope.CodeUnknown
		if perr.Path == "/minecraft/profile" && perr.ErrorType == "NOT_FOUND" {
			code = envelope.CodeNotOwned
		}
		return envelope.Err[Profile](fmt.Errorf("msa: fetch profile failed (%d)", resp.StatusCode), code)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return envelope.Err[Profile](fmt.Errorf("msa: decoding profile response: %w", err), envelope.CodeUnknown)
	}
	return envelope.Ok(profile)
}
