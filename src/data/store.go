package data

import (
	"context"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

// Store persists the access token and the latest market snapshot so both
// survive a process restart. Load methods report absence with a false
// second return rather than an error; errors mean the backing store itself
// misbehaved.
type Store interface {
	SaveCredential(ctx context.Context, accessToken string) error
	LoadCredential(ctx context.Context) (string, bool, error)
	SaveSnapshot(ctx context.Context, snapshot *eventmodels.MarketSnapshotDTO) error
	LoadSnapshot(ctx context.Context) (*eventmodels.MarketSnapshotDTO, bool, error)
}
