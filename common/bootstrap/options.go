package bootstrap

import (
	"github.com/viniciusmaculo/filaTransplantesBackend/common/config"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/ledger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipTelemetry bool
	customLogger  *logger.Logger
	customConfig  *config.Config
	customLedger  ledger.Ledger
}

func defaultOptions() *options {
	return &options{}
}

// WithoutTelemetry skips telemetry initialization
func WithoutTelemetry() Option {
	return func(o *options) {
		o.skipTelemetry = true
	}
}

// WithLogger uses a pre-built logger instead of constructing one from config
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithConfig uses a pre-built config instead of loading from the environment
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithLedger uses a pre-built ledger instead of the configured backend
func WithLedger(l ledger.Ledger) Option {
	return func(o *options) {
		o.customLedger = l
	}
}
