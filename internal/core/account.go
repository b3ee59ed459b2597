package core

import (
	"time"

	"github.com/google/uuid"
)

// AccountType represents the identity provider backing an Account.
type AccountType string

const (
	AccountTypeMSA       AccountType = "msa"
	AccountTypeYggdrasil AccountType = "yggdrasil"
	AccountTypeOffline   AccountType = "offline"
)

// Account represents a playable account, regardless of which identity
// provider produced it.
type Account struct {
	ID          string      `json:"id"` // UUID, player id for msa/yggdrasil, generated for offline
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`

	// msa-only
	MSARefreshToken string `json:"msaRefreshToken,omitempty"`

	// yggdrasil-only
	ClientToken string `json:"clientToken,omitempty"`
}

// NewOfflineAccount builds a locally-fabricated account that never
// contacts a remote identity provider. Its token never expires.
func NewOfflineAccount(name string) *Account {
	return &Account{
		ID:   uuid.NewString(),
		Name: name,
		Type: AccountTypeOffline,
	}
}

// IsExpired checks if the access token is past its expiry, with a 5
// minute buffer so a caller doesn't start a launch on a token that
// will expire mid-session. Offline accounts never expire.
func (a *Account) IsExpired() bool {
	if a.Type == AccountTypeOffline {
		return false
	}
	return time.Now().Add(5 * time.Minute).After(a.ExpiresAt)
}
