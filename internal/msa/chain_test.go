package msa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quasar/launchercore/internal/envelope"
)

func TestClient_AuthenticateXSTS_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		xErr int64
		want envelope.ProviderCode
	}{
		{"no xbox account", 2148916233, envelope.CodeNoXboxAccount},
		{"banned", 2148916235, envelope.CodeXBLBanned},
		{"under 18", 2148916238, envelope.CodeUnder18},
		{"unknown code", 9999999999, envelope.CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(XboxToken{XErr: tt.xErr})
			}))
			defer srv.Close()

			c := NewClient("client-id", "https://example.com/callback")
			xstsAuthURL = srv.URL
			defer func() { xstsAuthURL = "https://xsts.auth.xboxlive.com/xsts/authorize" }()

			env := c.AuthenticateXSTS(context.Background(), "xbl-token")
			if env.Status != envelope.StatusError {
				t.Fatalf("Status = %v, want ERROR", env.Status)
			}
			if env.ProviderCode != tt.want {
				t.Errorf("ProviderCode = %q, want %q", env.ProviderCode, tt.want)
			}
		})
	}
}

func TestClient_AuthenticateXBL_ErrorClassification(t *testing.T) {
	// AuthenticateXBL shares XboxToken's response shape (and XErr table)
	// with AuthenticateXSTS, so the same provider codes must classify at
	// this hop too (spec.md §8 scenario 4).
	tests := []struct {
		name string
		xErr int64
		want envelope.ProviderCode
	}{
		{"no xbox account", 2148916233, envelope.CodeNoXboxAccount},
		{"banned", 2148916235, envelope.CodeXBLBanned},
		{"under 18", 2148916238, envelope.CodeUnder18},
		{"unknown code", 9999999999, envelope.CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(XboxToken{XErr: tt.xErr})
			}))
			defer srv.Close()

			c := NewClient("client-id", "https://example.com/callback")
			xboxUserAuthURL = srv.URL
			defer func() { xboxUserAuthURL = "https://user.auth.xboxlive.com/user/authenticate" }()

			env := c.AuthenticateXBL(context.Background(), "msa-access-token")
			if env.Status != envelope.StatusError {
				t.Fatalf("Status = %v, want ERROR", env.Status)
			}
			if env.ProviderCode != tt.want {
				t.Errorf("ProviderCode = %q, want %q", env.ProviderCode, tt.want)
			}
		})
	}
}

func TestClient_FetchProfile_NotOwned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(profileError{Path: "/minecraft/profile", ErrorType: "NOT_FOUND"})
	}))
	defer srv.Close()

	c := NewClient("client-id", "https://example.com/callback")
	mcProfileURL = srv.URL
	defer func() { mcProfileURL = "https://api.minecraftservices.com/minecraft/profile" }()

	env := c.FetchProfile(context.Background(), "game-token")
	if env.ProviderCode != envelope.CodeNotOwned {
		t.Errorf("ProviderCode = %q, want NOT_OWNED", env.ProviderCode)
	}
}

func TestClient_FetchProfile_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer game-token" {
			t.Errorf("missing bearer header: %s", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(Profile{ID: "uuid-1", Name: "Alex"})
	}))
	defer srv.Close()

	c := NewClient("client-id", "https://example.com/callback")
	mcProfileURL = srv.URL
	defer func() { mcProfileURL = "https://api.minecraftservices.com/minecraft/profile" }()

	env := c.FetchProfile(context.Background(), "game-token")
	if env.Status != envelope.StatusSuccess || env.Data.Name != "Alex" {
		t.Errorf("got %+v", env)
	}
}

func TestXboxToken_UHS(t *testing.T) {
	var tok XboxToken
	if tok.UHS() != "" {
		t.Error("expected empty UHS for a token with no display claims")
	}
	tok.DisplayClaims.XUI = append(tok.DisplayClaims.XUI, struct {
		UHS string `json:"uhs"`
	}{UHS: "hash-1"})
	if tok.UHS() != "hash-1" {
		t.Errorf("UHS() = %q, want hash-1", tok.UHS())
	}
}
