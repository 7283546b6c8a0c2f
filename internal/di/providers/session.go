package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-tracker/internal/collection"
	"github.com/listenupapp/listenup-tracker/internal/config"
	"github.com/listenupapp/listenup-tracker/internal/logger"
)

// SessionHandle wraps the collection session with its SSE subscription.
type SessionHandle struct {
	*collection.Session
	unsubscribe func()
}

// Shutdown implements do.Shutdownable.
func (h *SessionHandle) Shutdown() error {
	h.unsubscribe()
	h.Close()
	return nil
}

// ProvideSession provides the collection session and starts it.
//
// A successful refresh or increment updates the cache first and then the
// lookup index.
// Every published state is forwarded to stream clients of this session.
func ProvideSession(i do.Injector) (*SessionHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	trackerHandle := do.MustInvoke[*TrackerClientHandle](i)
	prefsHandle := do.MustInvoke[*PrefsHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	lookupHandle := do.MustInvoke[*LookupHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	ctx := context.Background()
	session, err := collection.NewSession(ctx, collection.Dependencies{
		Remote:         trackerHandle.Client,
		Preferences:    prefsHandle.Store,
		Cache:          cacheHandle.Store,
		Logger:         log.Logger,
		RefreshHooks:   []collection.RefreshHook{lookupHandle.Replace},
		UpdateHooks:    []collection.UpdateHook{lookupHandle.Upsert},
		RequestTimeout: cfg.Tracker.Timeout,
	})
	if err != nil {
		return nil, err
	}

	sessionID := session.Store().ID()
	unsubscribe := session.Store().Subscribe(sseHandle.Publisher(sessionID))
	session.Start(ctx, cfg.Session.RefreshOnStart)

	log.WithSession(sessionID).Info("Collection session ready")

	return &SessionHandle{Session: session, unsubscribe: unsubscribe}, nil
}
