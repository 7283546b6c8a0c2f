// Package di provides dependency injection configuration for the tracker client.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-tracker/internal/config"
	"github.com/listenupapp/listenup-tracker/internal/di/providers"
	"github.com/listenupapp/listenup-tracker/internal/logger"
	"github.com/listenupapp/listenup-tracker/internal/search"
	"github.com/listenupapp/listenup-tracker/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvidePrefs)
	do.Provide(injector, providers.ProvideLookupIndex)

	// Remote tracker
	do.Provide(injector, providers.ProvideTrackerClient)
	do.Provide(injector, providers.ProvideSearchService)

	// Collection
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideSession)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the HTTP server is listening.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.PrefsHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.LookupHandle](injector)

	if _, err := do.Invoke[*providers.TrackerClientHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*search.Service](injector)

	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	if _, err := do.Invoke[*providers.SessionHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
