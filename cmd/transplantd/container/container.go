// Package container wires the service singletons once at startup
package container

import (
	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/service"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/bootstrap"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/chaincache"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/keys"
)

// Container holds all initialized services
type Container struct {
	Keys   *keys.Manager
	Chains *chaincache.ChainCache
	Queues *service.QueueService
}

// NewContainer creates all services from bootstrapped components
func NewContainer(components *bootstrap.Components) (*Container, error) {
	keyManager := keys.NewManager(components.KeyStore, components.Logger)

	chains := chaincache.New(
		components.KeyStore,
		components.Cache,
		components.Config.Cache.DefaultTTL,
		components.Logger,
	)

	queues := service.NewQueueService(
		components.Ledger,
		chains,
		keyManager,
		components.Config.Chain.MaxCommitRetries,
		components.Logger,
	)

	return &Container{
		Keys:   keyManager,
		Chains: chains,
		Queues: queues,
	}, nil
}
