package data

import (
	"context"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/hedgeai/marketdata/src/eventmodels"
	"github.com/hedgeai/marketdata/src/utils"
)

// Tokens are opaque provider strings; anything shorter is a paste error.
const minAccessTokenLength = 5

// CredentialStore holds the current access token in memory and mirrors it
// to the backing store. The token starts empty and the service runs in a
// degraded mode until one is supplied.
type CredentialStore struct {
	mu    sync.RWMutex
	token string
	store Store
}

func NewCredentialStore(store Store) *CredentialStore {
	return &CredentialStore{store: store}
}

// Token returns the current access token, if one is loaded.
func (c *CredentialStore) Token() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token, c.token != ""
}

// Set validates, persists and then swaps in a new access token. The write
// is synchronous: a token that cannot be persisted is not applied, so a
// restart never silently reverts to an older credential.
func (c *CredentialStore) Set(ctx context.Context, accessToken string) error {
	accessToken = strings.TrimSpace(accessToken)
	if len(accessToken) < minAccessTokenLength {
		return eventmodels.NewWebError(400, "token is missing or too short", nil)
	}

	if err := c.store.SaveCredential(ctx, accessToken); err != nil {
		return fmt.Errorf("CredentialStore.Set: failed to persist token: %w", err)
	}

	c.mu.Lock()
	c.token = accessToken
	c.mu.Unlock()

	log.Infof("CredentialStore: access token updated: %s", utils.MaskSecret(accessToken))

	return nil
}

// Load pulls a previously persisted token into memory at boot. A missing
// token is not an error; the caller decides how loudly to complain.
func (c *CredentialStore) Load(ctx context.Context) error {
	accessToken, found, err := c.store.LoadCredential(ctx)
	if err != nil {
		return fmt.Errorf("CredentialStore.Load: %w", err)
	}

	if !found {
		return nil
	}

	c.mu.Lock()
	c.token = accessToken
	c.mu.Unlock()

	log.Infof("CredentialStore: restored persisted access token: %s", utils.MaskSecret(accessToken))

	return nil
}
