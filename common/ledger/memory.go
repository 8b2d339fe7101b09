package ledger

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/apperror"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/models"
)

// MemoryLedger is an in-process ledger for local development and tests.
// It verifies record signatures but, like the real ledger service, accepts
// an append whose predecessor is no longer the head.
type MemoryLedger struct {
	mu     sync.RWMutex
	assets map[string]*Asset         // asset id -> asset
	chains map[string][]Transaction  // asset id -> records, commit order
	byTxID map[string]Transaction    // record id -> record
	log    *logger.Logger
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger(log *logger.Logger) *MemoryLedger {
	return &MemoryLedger{
		assets: make(map[string]*Asset),
		chains: make(map[string][]Transaction),
		byTxID: make(map[string]Transaction),
		log:    log,
	}
}

// CreateAsset commits a signed creation record
func (l *MemoryLedger) CreateAsset(ctx context.Context, req CreateRequest) (string, error) {
	if err := verifySignature(req.PublicKey, req.Metadata, req.Signature); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := uuid.NewString()
	tx := Transaction{
		ID:          txID,
		AssetID:     txID,
		Operation:   OpCreate,
		Metadata:    req.Metadata,
		PublicKey:   req.PublicKey,
		Signature:   req.Signature,
		CommittedAt: time.Now().UTC(),
	}

	l.assets[txID] = &Asset{ID: txID, Data: req.Asset}
	l.chains[txID] = []Transaction{tx}
	l.byTxID[txID] = tx

	l.log.Debug("ledger CREATE committed", "asset_id", txID)
	return txID, nil
}

// Append commits a signed record referencing a prior record
func (l *MemoryLedger) Append(ctx context.Context, req AppendRequest) (string, error) {
	if err := verifySignature(req.PublicKey, req.Metadata, req.Signature); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.assets[req.AssetID]; !ok {
		return "", apperror.E(apperror.KindUpstream, "unknown asset %s", req.AssetID)
	}

	prev, ok := l.byTxID[req.PrevTxID]
	if !ok || prev.AssetID != req.AssetID {
		return "", apperror.E(apperror.KindUpstream, "unknown prior record %s for asset %s", req.PrevTxID, req.AssetID)
	}

	tx := Transaction{
		ID:          uuid.NewString(),
		AssetID:     req.AssetID,
		PrevTxID:    req.PrevTxID,
		Operation:   OpTransfer,
		Metadata:    req.Metadata,
		PublicKey:   req.PublicKey,
		Signature:   req.Signature,
		CommittedAt: time.Now().UTC(),
	}

	l.chains[req.AssetID] = append(l.chains[req.AssetID], tx)
	l.byTxID[tx.ID] = tx

	l.log.Debug("ledger TRANSFER committed", "asset_id", req.AssetID, "tx_id", tx.ID)
	return tx.ID, nil
}

// FindAsset resolves the asset for a (jurisdiction, resource) pair
func (l *MemoryLedger) FindAsset(ctx context.Context, jurisdiction, resource string) (*Asset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, asset := range l.assets {
		if asset.Data.Kind == models.AssetKind &&
			asset.Data.Jurisdiction == jurisdiction &&
			asset.Data.Resource == resource {
			found := *asset
			return &found, nil
		}
	}
	return nil, nil
}

// ListTransactions returns all records for an asset, oldest first
func (l *MemoryLedger) ListTransactions(ctx context.Context, assetID string) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	chain, ok := l.chains[assetID]
	if !ok {
		return nil, nil
	}
	out := make([]Transaction, len(chain))
	copy(out, chain)
	return out, nil
}

// GetTransaction looks up a single record by id
func (l *MemoryLedger) GetTransaction(ctx context.Context, txID string) (*Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tx, ok := l.byTxID[txID]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

// Close is a no-op for the in-memory ledger
func (l *MemoryLedger) Close() error {
	return nil
}

func verifySignature(publicKey, message, signature []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return apperror.E(apperror.KindUpstream, "invalid public key length %d", len(publicKey))
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), message, signature) {
		return apperror.E(apperror.KindUpstream, "record signature verification failed")
	}
	return nil
}
