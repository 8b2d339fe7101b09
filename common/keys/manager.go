// Package keys manages one signing keypair per jurisdiction. Only the holder
// of a jurisdiction's private key may produce a valid new version for that
// jurisdiction's queues.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"sync"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/apperror"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/kvstore"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
)

const storePrefix = "jurisdiction-key/"

// KeyPair is a jurisdiction's signing keypair
type KeyPair struct {
	Jurisdiction string             `json:"jurisdiction"`
	PublicKey    ed25519.PublicKey  `json:"publicKey"`
	PrivateKey   ed25519.PrivateKey `json:"privateKey"`
}

// Sign produces a detached signature over the message
func (kp KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.PrivateKey, message)
}

// Verify checks a detached signature against the keypair's public key
func (kp KeyPair) Verify(message, signature []byte) bool {
	return ed25519.Verify(kp.PublicKey, message, signature)
}

// Manager creates and retrieves jurisdiction keypairs, persisting new ones
// durably before handing them out
type Manager struct {
	store *kvstore.Store
	log   *logger.Logger

	mu    sync.Mutex
	cache map[string]KeyPair
}

// NewManager creates a key manager backed by the given store
func NewManager(store *kvstore.Store, log *logger.Logger) *Manager {
	return &Manager{
		store: store,
		log:   log,
		cache: make(map[string]KeyPair),
	}
}

// EnsureKeyPair returns the jurisdiction's keypair, generating and persisting
// a new one on first use. Concurrent calls for the same jurisdiction are
// serialized so only one keypair is ever persisted; if persistence fails the
// generated key is discarded and an error returned.
func (m *Manager) EnsureKeyPair(jurisdiction string) (KeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kp, found, err := m.lookupLocked(jurisdiction)
	if err != nil {
		return KeyPair{}, err
	}
	if found {
		return kp, nil
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, apperror.Wrap(apperror.KindKeyManagement, err, "generate keypair for %s", jurisdiction)
	}

	kp = KeyPair{
		Jurisdiction: jurisdiction,
		PublicKey:    pub,
		PrivateKey:   priv,
	}

	data, err := json.Marshal(kp)
	if err != nil {
		return KeyPair{}, apperror.Wrap(apperror.KindKeyManagement, err, "encode keypair for %s", jurisdiction)
	}
	if err := m.store.Put(storePrefix+jurisdiction, data); err != nil {
		return KeyPair{}, apperror.Wrap(apperror.KindKeyManagement, err, "persist keypair for %s", jurisdiction)
	}

	m.cache[jurisdiction] = kp
	m.log.Info("created jurisdiction keypair", "jurisdiction", jurisdiction)

	return kp, nil
}

// GetKeyPair looks up a jurisdiction's keypair without side effects
func (m *Manager) GetKeyPair(jurisdiction string) (KeyPair, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(jurisdiction)
}

func (m *Manager) lookupLocked(jurisdiction string) (KeyPair, bool, error) {
	if kp, ok := m.cache[jurisdiction]; ok {
		return kp, true, nil
	}

	data, found, err := m.store.Get(storePrefix + jurisdiction)
	if err != nil {
		return KeyPair{}, false, apperror.Wrap(apperror.KindKeyManagement, err, "load keypair for %s", jurisdiction)
	}
	if !found {
		return KeyPair{}, false, nil
	}

	var kp KeyPair
	if err := json.Unmarshal(data, &kp); err != nil {
		return KeyPair{}, false, apperror.Wrap(apperror.KindKeyManagement, err, "decode keypair for %s", jurisdiction)
	}

	m.cache[jurisdiction] = kp
	return kp, true, nil
}
