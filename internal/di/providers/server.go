package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-tracker/internal/api"
	"github.com/listenupapp/listenup-tracker/internal/config"
	"github.com/listenupapp/listenup-tracker/internal/logger"
	"github.com/listenupapp/listenup-tracker/internal/ratelimit"
	"github.com/listenupapp/listenup-tracker/internal/search"
	"github.com/listenupapp/listenup-tracker/internal/sse"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	limiter *ratelimit.Limiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.limiter.Stop()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sessionHandle := do.MustInvoke[*SessionHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	lookupHandle := do.MustInvoke[*LookupHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	searchService := do.MustInvoke[*search.Service](i)

	store := sessionHandle.Store()
	sseHandler := sse.NewHandler(sseHandle.Manager, func() (sse.Event, bool) {
		return sse.NewStateEvent(store.ID(), store.State()), true
	}, log.Logger)

	services := &api.Services{
		Session: sessionHandle.Session,
		Search:  searchService,
		Lookup:  lookupHandle.Index,
		Cache:   cacheHandle.Store,
		SSE:     sseHandle.Manager,
	}

	limiter := ratelimit.New(cfg.Server.SearchRPS, cfg.Server.SearchBurst)
	handler := api.NewServer(services, sseHandler, api.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		SearchLimiter: limiter,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, limiter: limiter}, nil
}
