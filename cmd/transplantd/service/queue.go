// Package service implements the versioned-chain queue protocol: each
// logical waitlist is a chain of immutable, signed version records on the
// ledger, and every mutation extends the chain through an optimistic
// compare-and-swap loop that preserves the single-head invariant.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/apperror"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/chaincache"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/keys"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/ledger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/locker"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/masking"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/models"
)

// errEmptyQueue signals a mutation attempt on an empty queue; calling next
// on an empty queue is a normal outcome, not a failure
var errEmptyQueue = errors.New("queue is empty")

// QueueService maintains the version chains of all waitlists
type QueueService struct {
	ledger     ledger.Ledger
	cache      *chaincache.ChainCache
	keys       *keys.Manager
	locks      *locker.KeyedMutex
	maxRetries int
	log        *logger.Logger
}

// NewQueueService creates a queue service
func NewQueueService(l ledger.Ledger, cache *chaincache.ChainCache, keys *keys.Manager, maxRetries int, log *logger.Logger) *QueueService {
	return &QueueService{
		ledger:     l,
		cache:      cache,
		keys:       keys,
		locks:      locker.New(),
		maxRetries: maxRetries,
		log:        log,
	}
}

// CallResult is the outcome of a call operation. Record is nil when the
// queue was empty.
type CallResult struct {
	Empty  bool
	Called *models.Entry
	Record *models.VersionRecord
}

// CreateQueue commits the genesis version of a new queue. Fails with
// AlreadyExists if an asset is already known for the pair.
func (s *QueueService) CreateQueue(ctx context.Context, key models.QueueKey, actingUser string) (string, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	if _, found, err := s.cache.Asset(key); err != nil {
		return "", err
	} else if found {
		return "", apperror.E(apperror.KindAlreadyExists, "queue %s already exists", key)
	}

	asset, err := s.ledger.FindAsset(ctx, key.Jurisdiction, key.Resource)
	if err != nil {
		return "", err
	}
	if asset != nil {
		// Discovered via the ledger; remember the identity for next time
		if err := s.cache.PutAsset(key, asset.ID); err != nil {
			s.log.Warn("failed to cache discovered asset", "queue", key.String(), "error", err)
		}
		return "", apperror.E(apperror.KindAlreadyExists, "queue %s already exists", key)
	}

	if actingUser == "" {
		actingUser = "admin-" + key.Jurisdiction
	}

	kp, err := s.keys.EnsureKeyPair(key.Jurisdiction)
	if err != nil {
		return "", err
	}

	meta := models.VersionMeta{
		Version:   1,
		Label:     models.VersionLabel(1),
		Event:     models.EventCreated,
		User:      actingUser,
		Timestamp: time.Now().UTC(),
		Entries:   []models.Entry{},
	}

	metaBytes, sig, err := signMeta(kp, meta)
	if err != nil {
		return "", err
	}

	txID, err := s.ledger.CreateAsset(ctx, ledger.CreateRequest{
		Asset:     models.NewAssetData(key),
		Metadata:  metaBytes,
		PublicKey: kp.PublicKey,
		Signature: sig,
	})
	if err != nil {
		return "", err
	}

	if err := s.cache.PutAsset(key, txID); err != nil {
		// The asset exists on the ledger; a failed cache write only costs a
		// later ledger lookup
		s.log.Warn("failed to persist asset identity", "queue", key.String(), "error", err)
	}
	s.cache.SetHead(ctx, key, chaincache.Head{TxID: txID, Version: 1})

	s.log.Info("queue created", "queue", key.String(), "tx_id", txID, "user", actingUser)
	return txID, nil
}

// GetCurrentSnapshot returns the head version record of a queue
func (s *QueueService) GetCurrentSnapshot(ctx context.Context, key models.QueueKey) (*models.VersionRecord, error) {
	assetID, err := s.resolveAsset(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.resolveHead(ctx, key, assetID)
}

// AppendEntry masks the raw identifier and name and commits a new version
// with the entry at the tail of the queue
func (s *QueueService) AppendEntry(ctx context.Context, key models.QueueKey, rawID, rawName, actingUser string) (*models.VersionRecord, error) {
	// Mask before anything enters a snapshot; the raw values never go further
	maskedID, err := masking.MaskIdentifier(rawID)
	if err != nil {
		return nil, err
	}
	maskedName, err := masking.MaskName(rawName)
	if err != nil {
		return nil, err
	}

	record, err := s.commitMutation(ctx, key, func(head *models.VersionRecord) (models.VersionMeta, error) {
		entries := head.Snapshot()
		entry := models.Entry{
			MaskedID:   maskedID,
			MaskedName: maskedName,
			Position:   len(entries) + 1,
		}
		entries = append(entries, entry)

		return models.VersionMeta{
			Event:   models.EventAdded,
			User:    actingUser,
			Entries: entries,
			Added:   &entry,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CallByPosition removes the entry at the given 1-based position, renumbers
// the remaining entries, and commits the new version
func (s *QueueService) CallByPosition(ctx context.Context, key models.QueueKey, position int, actingUser string) (*CallResult, error) {
	var called models.Entry

	record, err := s.commitMutation(ctx, key, func(head *models.VersionRecord) (models.VersionMeta, error) {
		entries := head.Snapshot()
		if position < 1 || position > len(entries) {
			return models.VersionMeta{}, apperror.E(apperror.KindInvalidPosition,
				"position %d out of range [1, %d]", position, len(entries))
		}

		called = entries[position-1]
		entries = append(entries[:position-1], entries[position:]...)
		renumber(entries)

		return models.VersionMeta{
			Event:   models.EventCalled,
			User:    actingUser,
			Entries: entries,
			Called:  &called,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &CallResult{
		Called: &called,
		Record: record,
	}, nil
}

// CallNext removes the entry at position 1. An empty queue yields an
// explicit empty result rather than an error.
func (s *QueueService) CallNext(ctx context.Context, key models.QueueKey, actingUser string) (*CallResult, error) {
	var called models.Entry

	record, err := s.commitMutation(ctx, key, func(head *models.VersionRecord) (models.VersionMeta, error) {
		entries := head.Snapshot()
		if len(entries) == 0 {
			return models.VersionMeta{}, errEmptyQueue
		}

		called = entries[0]
		entries = entries[1:]
		renumber(entries)

		return models.VersionMeta{
			Event:   models.EventCalled,
			User:    actingUser,
			Entries: entries,
			Called:  &called,
		}, nil
	})
	if errors.Is(err, errEmptyQueue) {
		return &CallResult{Empty: true}, nil
	}
	if err != nil {
		return nil, err
	}

	return &CallResult{
		Called: &called,
		Record: record,
	}, nil
}

// GetHistory returns every version record of a queue, oldest to newest
func (s *QueueService) GetHistory(ctx context.Context, key models.QueueKey) ([]*models.VersionRecord, error) {
	assetID, err := s.resolveAsset(ctx, key)
	if err != nil {
		return nil, err
	}

	txs, err := s.ledger.ListTransactions(ctx, assetID)
	if err != nil {
		return nil, err
	}

	records := make([]*models.VersionRecord, 0, len(txs))
	for _, tx := range txs {
		record, err := decodeRecord(tx)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// GetVersion returns the record with the given version number
func (s *QueueService) GetVersion(ctx context.Context, key models.QueueKey, version int64) (*models.VersionRecord, error) {
	history, err := s.GetHistory(ctx, key)
	if err != nil {
		return nil, err
	}

	for _, record := range history {
		if record.Version == version {
			return record, nil
		}
	}
	return nil, apperror.E(apperror.KindNotFound, "queue %s has no version %d", key, version)
}

// commitMutation runs the optimistic commit loop: read the head without any
// lock, compute the successor version, then serialize the fresh head check,
// the ledger append, and the cache update per queue key. A head that moved
// between read and commit triggers a bounded retry.
func (s *QueueService) commitMutation(ctx context.Context, key models.QueueKey, build func(head *models.VersionRecord) (models.VersionMeta, error)) (*models.VersionRecord, error) {
	assetID, err := s.resolveAsset(ctx, key)
	if err != nil {
		return nil, err
	}

	kp, err := s.keys.EnsureKeyPair(key.Jurisdiction)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		head, err := s.resolveHead(ctx, key, assetID)
		if err != nil {
			return nil, err
		}

		meta, err := build(head)
		if err != nil {
			return nil, err
		}
		meta.Version = head.Version + 1
		meta.Label = models.VersionLabel(meta.Version)
		meta.Timestamp = time.Now().UTC()

		metaBytes, sig, err := signMeta(kp, meta)
		if err != nil {
			return nil, err
		}

		record, committed, err := s.tryCommit(ctx, key, assetID, head.TxID, ledger.AppendRequest{
			AssetID:   assetID,
			PrevTxID:  head.TxID,
			Metadata:  metaBytes,
			PublicKey: kp.PublicKey,
			Signature: sig,
		}, meta)
		if err != nil {
			return nil, err
		}
		if committed {
			return record, nil
		}

		s.log.Debug("head moved during commit, retrying",
			"queue", key.String(),
			"attempt", attempt,
			"stale_head", head.TxID,
		)
	}

	return nil, apperror.E(apperror.KindConflict,
		"queue %s head kept moving after %d attempts", key, s.maxRetries)
}

// tryCommit holds the per-key lock for the compare-and-swap step only:
// verify the head is unchanged, append, and update the cached head
func (s *QueueService) tryCommit(ctx context.Context, key models.QueueKey, assetID, expectedHead string, req ledger.AppendRequest, meta models.VersionMeta) (*models.VersionRecord, bool, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	latest, err := s.latestTransaction(ctx, assetID)
	if err != nil {
		return nil, false, err
	}
	if latest.ID != expectedHead {
		// Someone committed since we read the head; drop the stale hint so
		// the retry resolves fresh
		s.cache.InvalidateHead(ctx, key)
		return nil, false, nil
	}

	txID, err := s.ledger.Append(ctx, req)
	if err != nil {
		return nil, false, err
	}

	s.cache.SetHead(ctx, key, chaincache.Head{TxID: txID, Version: meta.Version})

	record := &models.VersionRecord{
		TxID:        txID,
		AssetID:     assetID,
		PrevTxID:    expectedHead,
		VersionMeta: meta,
	}

	s.log.Info("version committed",
		"queue", key.String(),
		"tx_id", txID,
		"version", meta.Version,
		"event", meta.Event,
	)
	return record, true, nil
}

// resolveAsset resolves a queue's asset id from the cache, falling back to
// the ledger and repopulating the cache
func (s *QueueService) resolveAsset(ctx context.Context, key models.QueueKey) (string, error) {
	assetID, found, err := s.cache.Asset(key)
	if err != nil {
		return "", err
	}
	if found {
		return assetID, nil
	}

	asset, err := s.ledger.FindAsset(ctx, key.Jurisdiction, key.Resource)
	if err != nil {
		return "", err
	}
	if asset == nil {
		return "", apperror.E(apperror.KindNotFound, "no queue exists for %s", key)
	}

	if err := s.cache.PutAsset(key, asset.ID); err != nil {
		s.log.Warn("failed to cache asset identity", "queue", key.String(), "error", err)
	}
	return asset.ID, nil
}

// resolveHead resolves the current head record. The cached pointer is only a
// hint; a miss or a dangling pointer falls back to listing the asset's
// records and taking the last one.
func (s *QueueService) resolveHead(ctx context.Context, key models.QueueKey, assetID string) (*models.VersionRecord, error) {
	if head, found, err := s.cache.Head(ctx, key); err == nil && found {
		tx, err := s.ledger.GetTransaction(ctx, head.TxID)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			return decodeRecord(*tx)
		}
		// Dangling hint; fall through to the full resolution
		s.cache.InvalidateHead(ctx, key)
	}

	latest, err := s.latestTransaction(ctx, assetID)
	if err != nil {
		return nil, err
	}

	record, err := decodeRecord(*latest)
	if err != nil {
		return nil, err
	}

	s.cache.SetHead(ctx, key, chaincache.Head{TxID: record.TxID, Version: record.Version})
	return record, nil
}

// latestTransaction lists an asset's records and returns the newest
func (s *QueueService) latestTransaction(ctx context.Context, assetID string) (*ledger.Transaction, error) {
	txs, err := s.ledger.ListTransactions(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, apperror.E(apperror.KindUpstream, "asset %s has no records", assetID)
	}
	latest := txs[len(txs)-1]
	return &latest, nil
}

func decodeRecord(tx ledger.Transaction) (*models.VersionRecord, error) {
	var meta models.VersionMeta
	if err := json.Unmarshal(tx.Metadata, &meta); err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, err, "decode version record %s", tx.ID)
	}
	return &models.VersionRecord{
		TxID:        tx.ID,
		AssetID:     tx.AssetID,
		PrevTxID:    tx.PrevTxID,
		VersionMeta: meta,
	}, nil
}

func signMeta(kp keys.KeyPair, meta models.VersionMeta) ([]byte, []byte, error) {
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindKeyManagement, err, "encode version metadata")
	}
	return metaBytes, kp.Sign(metaBytes), nil
}

// renumber restores contiguous 1..N positions after a removal
func renumber(entries []models.Entry) {
	for i := range entries {
		entries[i].Position = i + 1
	}
}
