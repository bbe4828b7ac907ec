// File path: internal/deploy/correlator.go
package deploy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/openassess/asset-history/internal/common"
	"github.com/openassess/asset-history/internal/config"
	"github.com/openassess/asset-history/internal/storage"
)

// Correlator resolves accumulated targets against the two storage tiers.
type Correlator struct {
	store   storage.MetadataStore
	buckets config.BucketConfig
}

// NewCorrelator wires the metadata store and bucket names.
func NewCorrelator(store storage.MetadataStore, buckets config.BucketConfig) *Correlator {
	return &Correlator{store: store, buckets: buckets}
}

// Resolve fills each target's dev and prod tier status. The two tiers of one
// target are fetched concurrently; targets themselves run sequentially. A
// failure in one tier never blocks the other.
func (c *Correlator) Resolve(ctx context.Context, targets []*Target) {
	for _, t := range targets {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			t.Dev = c.resolveTier(ctx, c.buckets.DevBucket, t)
		}()
		go func() {
			defer wg.Done()
			t.Prod = c.resolveTier(ctx, c.buckets.ProdBucket, t)
		}()
		wg.Wait()
	}
}

func (c *Correlator) resolveTier(ctx context.Context, bucket string, t *Target) *TierStatus {
	meta, err := c.store.Stat(ctx, bucket, t.Object)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return &TierStatus{
			Status:     "missing",
			Deployment: Deployment{State: StateMissing},
		}
	case err != nil:
		common.Logger().Warn("deploy: metadata fetch failed", "bucket", bucket, "object", t.Object, "error", err)
		return &TierStatus{
			Status:     "error",
			Error:      err.Error(),
			Deployment: Deployment{State: StateUnknown},
		}
	}

	status := &TierStatus{Status: "ok", Checksum: meta.Checksum, Generation: meta.Generation}
	if meta.Size > 0 {
		size := meta.Size
		status.Size = &size
	}
	var updated *time.Time
	if !meta.Updated.IsZero() {
		u := meta.Updated
		updated = &u
	}
	status.Updated = updated
	status.Deployment = classify(updated, t.LatestCommit)
	return status
}

// classify derives the freshness verdict. Equal timestamps count as
// deployed: the artifact already reflects that commit.
func classify(updated, latestCommit *time.Time) Deployment {
	if updated == nil || latestCommit == nil {
		return Deployment{State: StateUnknown, Updated: updated}
	}
	if !updated.Before(*latestCommit) {
		return Deployment{State: StateDeployed, Updated: updated}
	}
	return Deployment{State: StatePending, Updated: updated}
}
