// Package ledger abstracts the external append-only ledger service that
// stores queue assets and their signed version chains. The ledger assigns
// record identifiers and supports lookup by identifier and by asset; it does
// NOT verify that an appended record's predecessor is still the chain head,
// so compare-and-swap is the caller's responsibility.
package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/models"
)

// Transaction is one committed ledger record
type Transaction struct {
	ID          string          `json:"id"`
	AssetID     string          `json:"assetId"`
	PrevTxID    string          `json:"prevTxId,omitempty"`
	Operation   string          `json:"operation"`
	Metadata    json.RawMessage `json:"metadata"`
	PublicKey   []byte          `json:"publicKey"`
	Signature   []byte          `json:"signature"`
	CommittedAt time.Time       `json:"committedAt"`
}

// Operations
const (
	OpCreate   = "CREATE"
	OpTransfer = "TRANSFER"
)

// Asset is a ledger-level durable identity
type Asset struct {
	ID   string           `json:"id"`
	Data models.AssetData `json:"data"`
}

// CreateRequest commits a new asset with its genesis record
type CreateRequest struct {
	Asset     models.AssetData `json:"asset"`
	Metadata  json.RawMessage  `json:"metadata"`
	PublicKey []byte           `json:"publicKey"`
	Signature []byte           `json:"signature"`
}

// AppendRequest commits a record referencing a prior one
type AppendRequest struct {
	AssetID   string          `json:"assetId"`
	PrevTxID  string          `json:"prevTxId"`
	Metadata  json.RawMessage `json:"metadata"`
	PublicKey []byte          `json:"publicKey"`
	Signature []byte          `json:"signature"`
}

// Ledger is the external append-only ledger service
type Ledger interface {
	// CreateAsset commits a signed creation record and returns its id,
	// which doubles as the asset id.
	CreateAsset(ctx context.Context, req CreateRequest) (string, error)

	// Append commits a signed record referencing a prior record. The prior
	// record must exist but is not required to be the current head.
	Append(ctx context.Context, req AppendRequest) (string, error)

	// FindAsset resolves the asset for a (jurisdiction, resource) pair.
	// Returns (nil, nil) when no such asset exists.
	FindAsset(ctx context.Context, jurisdiction, resource string) (*Asset, error)

	// ListTransactions returns all records for an asset, oldest first.
	ListTransactions(ctx context.Context, assetID string) ([]Transaction, error)

	// GetTransaction looks up a single record by id. Returns (nil, nil)
	// when absent.
	GetTransaction(ctx context.Context, txID string) (*Transaction, error)

	Close() error
}
