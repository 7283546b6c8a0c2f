package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-tracker/internal/config"
	"github.com/listenupapp/listenup-tracker/internal/logger"
	"github.com/listenupapp/listenup-tracker/internal/search"
	"github.com/listenupapp/listenup-tracker/internal/tracker"
	"github.com/listenupapp/listenup-tracker/internal/validation"
)

// TrackerClientHandle wraps the tracker client with shutdown capability.
type TrackerClientHandle struct {
	*tracker.Client
}

// Shutdown implements do.Shutdownable.
func (h *TrackerClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideTrackerClient provides the rate-limited tracker API client.
func ProvideTrackerClient(i do.Injector) (*TrackerClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client, err := tracker.New(tracker.Config{
		BaseURL: cfg.Tracker.BaseURL,
		Token:   cfg.Tracker.Token,
		UserID:  cfg.Tracker.UserID,
		Timeout: cfg.Tracker.Timeout,
		RPS:     cfg.Tracker.RPS,
		Burst:   cfg.Tracker.Burst,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Tracker client initialized",
		"url", cfg.Tracker.BaseURL,
		"authenticated", cfg.Tracker.Token != "",
	)

	return &TrackerClientHandle{Client: client}, nil
}

// ProvideSearchService provides the catalog search service.
func ProvideSearchService(i do.Injector) (*search.Service, error) {
	trackerHandle := do.MustInvoke[*TrackerClientHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return search.NewService(trackerHandle.Client, cacheHandle.Store, validator, log.Logger), nil
}
