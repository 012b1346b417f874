package assets

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"couponhub/internal/metrics"
)

// Tracker remembers every asset saved during one operation so they can be
// removed if the operation does not complete. Callers defer Release and call
// Commit once the owning document is persisted.
type Tracker struct {
	store  Store
	logger *zap.Logger

	mu        sync.Mutex
	saved     []string
	committed bool
}

func NewTracker(store Store, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// Save persists one upload and tracks it.
func (t *Tracker) Save(ctx context.Context, folder string, upload Upload) (string, error) {
	ref, err := t.store.Save(ctx, folder, upload)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	t.saved = append(t.saved, ref)
	t.mu.Unlock()
	return ref, nil
}

// SaveAll persists uploads in order. On failure the ones already saved stay
// tracked and are removed by Release.
func (t *Tracker) SaveAll(ctx context.Context, folder string, uploads []Upload) ([]string, error) {
	refs := make([]string, 0, len(uploads))
	for _, u := range uploads {
		ref, err := t.Save(ctx, folder, u)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Commit keeps every tracked asset.
func (t *Tracker) Commit() {
	t.mu.Lock()
	t.committed = true
	t.mu.Unlock()
}

// Release deletes tracked assets unless Commit was called.
func (t *Tracker) Release(ctx context.Context) {
	t.mu.Lock()
	refs := t.saved
	committed := t.committed
	t.saved = nil
	t.mu.Unlock()

	if committed || len(refs) == 0 {
		return
	}
	Remove(ctx, t.store, t.logger, refs...)
}

// Remove deletes assets without failing the caller: errors are logged and
// counted.
func Remove(ctx context.Context, store Store, logger *zap.Logger, refs ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := store.Delete(ctx, ref); err != nil {
			metrics.AssetCleanupFailuresTotal.Inc()
			logger.Warn("asset cleanup failed", zap.String("asset", ref), zap.Error(err))
		}
	}
}
