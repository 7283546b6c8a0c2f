package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-tracker/internal/cache"
	"github.com/listenupapp/listenup-tracker/internal/config"
	"github.com/listenupapp/listenup-tracker/internal/logger"
	"github.com/listenupapp/listenup-tracker/internal/lookup"
	"github.com/listenupapp/listenup-tracker/internal/prefs"
)

// CacheHandle wraps the series cache with shutdown capability.
type CacheHandle struct {
	*cache.Store
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the SQLite series cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.CachePath), 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store, err := cache.Open(cfg.Storage.CachePath, log.Logger)
	if err != nil {
		return nil, err
	}

	count, _ := store.Count(context.Background())
	log.Info("Series cache initialized", "path", cfg.Storage.CachePath, "series", count)

	return &CacheHandle{Store: store}, nil
}

// PrefsHandle wraps the preference store with shutdown capability.
type PrefsHandle struct {
	*prefs.Store
}

// Shutdown implements do.Shutdownable.
func (h *PrefsHandle) Shutdown() error {
	return h.Close()
}

// ProvidePrefs provides the Badger preference store.
func ProvidePrefs(i do.Injector) (*PrefsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := prefs.Open(cfg.Storage.PrefsPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Preferences initialized", "path", cfg.Storage.PrefsPath)

	return &PrefsHandle{Store: store}, nil
}

// LookupHandle wraps the lookup index with shutdown capability.
type LookupHandle struct {
	*lookup.Index
}

// Shutdown implements do.Shutdownable.
func (h *LookupHandle) Shutdown() error {
	return h.Close()
}

// ProvideLookupIndex provides the in-memory lookup index, seeded from the cache.
func ProvideLookupIndex(i do.Injector) (*LookupHandle, error) {
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := lookup.New(log.Logger)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	cached, err := cacheHandle.ListSeries(ctx)
	if err != nil {
		log.Warn("Failed to read cache for lookup index", "error", err)
	} else if err := index.Replace(ctx, cached); err != nil {
		log.Warn("Failed to seed lookup index", "error", err)
	}

	docCount, _ := index.DocCount()
	log.Info("Lookup index initialized", "documents", docCount)

	return &LookupHandle{Index: index}, nil
}
