package bootstrap

import (
	"context"
	"fmt"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/cache"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/config"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/kvstore"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/ledger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/telemetry"
)

// Components holds all initialized service dependencies
type Components struct {
	Config    *config.Config
	Logger    *logger.Logger
	KeyStore  *kvstore.Store
	Cache     cache.Cache
	Ledger    ledger.Ledger
	Telemetry *telemetry.Telemetry

	// Internal
	cleanupFuncs []func() error
}

// Shutdown performs graceful shutdown of all components
// Should be called with defer after Setup()
func (c *Components) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down components")

	var errors []error

	// Run cleanup functions in reverse order (LIFO)
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			errors = append(errors, err)
			c.Logger.Error("cleanup error", "error", err)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("shutdown errors: %v", errors)
	}

	c.Logger.Info("shutdown complete")
	return nil
}

// addCleanup registers a cleanup function
func (c *Components) addCleanup(fn func() error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}
