package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/cache"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/config"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/kvstore"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/ledger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
	redisclient "github.com/viniciusmaculo/filaTransplantesBackend/common/redis"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/telemetry"
)

// Setup initializes all service components
// This is the main entry point for the service binary
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	// Apply options
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Open the durable key-value store (keypairs + asset identities)
	storePath := filepath.Join(components.Config.Store.DataDir, serviceName)
	components.KeyStore, err = kvstore.Open(storePath, components.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open kv store: %w", err)
	}
	components.addCleanup(func() error {
		components.Logger.Info("closing kv store")
		return components.KeyStore.Close()
	})

	// 4. Initialize the head-pointer cache
	switch components.Config.Cache.Backend {
	case "redis":
		components.Logger.Info("initializing cache", "backend", "redis")
		client, err := redisclient.Connect(ctx, components.Config.Cache.RedisAddr, components.Logger)
		if err != nil {
			components.Shutdown(ctx)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		components.Cache = cache.NewRedisCache(client, components.Logger)
	default:
		components.Logger.Info("initializing cache", "backend", "memory")
		components.Cache = cache.NewMemoryCache(components.Logger)
	}
	components.addCleanup(func() error {
		components.Logger.Info("closing cache")
		return components.Cache.Close()
	})

	// 5. Initialize the ledger client
	if options.customLedger != nil {
		components.Ledger = options.customLedger
	} else {
		switch components.Config.Ledger.Backend {
		case "http":
			components.Logger.Info("initializing ledger",
				"backend", "http",
				"url", components.Config.Ledger.URL,
			)
			components.Ledger = ledger.NewHTTPLedger(
				components.Config.Ledger.URL,
				components.Config.Ledger.Timeout,
				components.Logger,
			)
		default:
			components.Logger.Info("initializing ledger", "backend", "memory")
			components.Ledger = ledger.NewMemoryLedger(components.Logger)
		}
		components.addCleanup(func() error {
			components.Logger.Info("closing ledger")
			return components.Ledger.Close()
		})
	}

	// 6. Initialize telemetry (if not skipped)
	if !options.skipTelemetry && components.Config.Telemetry.EnablePprof {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(
			components.Config.Telemetry.PprofPort,
			components.Logger,
		)

		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
			// Don't fail startup if telemetry fails
		}
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"ledger", components.Config.Ledger.Backend,
		"cache", components.Config.Cache.Backend,
	)

	return components, nil
}
