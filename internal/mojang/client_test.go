package mojang

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quasar/launchercore/internal/envelope"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient()
	c.baseURL = srv.URL
	c.statusURL = srv.URL + "/summary.json"
	return c
}

func TestClient_Authenticate_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/authenticate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body authenticateRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "steve" {
			t.Errorf("username = %q", body.Username)
		}
		json.NewEncoder(w).Encode(Session{
			AccessToken:     "token-1",
			ClientToken:     "client-1",
			SelectedProfile: Profile{ID: "abc", Name: "Steve"},
		})
	})

	env := c.Authenticate(context.Background(), "steve", "hunter2", "")
	if env.Status != envelope.StatusSuccess {
		t.Fatalf("Status = %v, want SUCCESS", env.Status)
	}
	if env.Data.AccessToken != "token-1" {
		t.Errorf("AccessToken = %q", env.Data.AccessToken)
	}
	if env.Data.SelectedProfile.Name != "Steve" {
		t.Errorf("SelectedProfile.Name = %q", env.Data.SelectedProfile.Name)
	}
}

func TestClient_Authenticate_InvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(errorBody{
			Error:        "ForbiddenOperationException",
			ErrorMessage: "Invalid credentials. Invalid username or password.",
		})
	})

	env := c.Authenticate(context.Background(), "steve", "wrong", "")
	if env.Status != envelope.StatusError {
		t.Fatalf("Status = %v, want ERROR", env.Status)
	}
	if env.ProviderCode != envelope.CodeInvalidCredentials {
		t.Errorf("ProviderCode = %q, want INVALID_CREDENTIALS", env.ProviderCode)
	}
	if env.IsInternalError() {
		t.Error("INVALID_CREDENTIALS should not be flagged internal")
	}
}

func TestClient_Authenticate_UserMigrated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(errorBody{
			Error:        "ForbiddenOperationException",
			ErrorMessage: "Invalid credentials.",
			Cause:        "UserMigratedException",
		})
	})
	env := c.Authenticate(context.Background(), "steve", "hunter2", "")
	if env.ProviderCode != envelope.CodeUserMigrated {
		t.Errorf("ProviderCode = %q, want USER_MIGRATED", env.ProviderCode)
	}
}

func TestClient_Validate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body tokenRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.AccessToken == "abc" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	})

	envTrue := c.Validate(context.Background(), "abc", "client-1")
	if envTrue.Status != envelope.StatusSuccess || !envTrue.Data {
		t.Errorf("expected {true, SUCCESS}, got %+v", envTrue)
	}

	envFalse := c.Validate(context.Background(), "def", "client-1")
	if envFalse.Status != envelope.StatusSuccess || envFalse.Data {
		t.Errorf("expected {false, SUCCESS}, got %+v", envFalse)
	}
}

func TestClient_Invalidate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/invalidate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	env := c.Invalidate(context.Background(), "abc", "client-1")
	if env.Status != envelope.StatusSuccess {
		t.Errorf("Status = %v, want SUCCESS", env.Status)
	}
}

func TestClient_Refresh(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refresh" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Session{AccessToken: "new-token", ClientToken: "client-1"})
	})
	env := c.Refresh(context.Background(), "old-token", "client-1")
	if env.Data.AccessToken != "new-token" {
		t.Errorf("AccessToken = %q, want new-token", env.Data.AccessToken)
	}
}

func TestClient_NotFoundIsInternalError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(errorBody{Error: "Not Found", ErrorMessage: "not found"})
	})
	env := c.Authenticate(context.Background(), "steve", "hunter2", "")
	if env.ProviderCode != envelope.CodeNotFound {
		t.Fatalf("ProviderCode = %q, want NOT_FOUND", env.ProviderCode)
	}
	if !env.IsInternalError() {
		t.Error("NOT_FOUND should be flagged internal")
	}
}
