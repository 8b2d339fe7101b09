package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/apperror"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/models"
)

// HTTPLedger talks to a ledger node over its REST API. Every call is bounded
// by the configured timeout; a timeout or transport failure surfaces as an
// Upstream error instead of hanging the request handler.
type HTTPLedger struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	log     *logger.Logger
}

// NewHTTPLedger creates a ledger client for the node at baseURL
func NewHTTPLedger(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPLedger {
	return &HTTPLedger{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
		log:     log,
	}
}

type commitResponse struct {
	ID string `json:"id"`
}

// CreateAsset commits a signed creation record
func (l *HTTPLedger) CreateAsset(ctx context.Context, req CreateRequest) (string, error) {
	body := map[string]any{
		"operation": OpCreate,
		"asset":     req.Asset,
		"metadata":  req.Metadata,
		"publicKey": req.PublicKey,
		"signature": req.Signature,
	}

	var resp commitResponse
	if err := l.do(ctx, http.MethodPost, "/transactions?mode=commit", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Append commits a signed record referencing a prior record
func (l *HTTPLedger) Append(ctx context.Context, req AppendRequest) (string, error) {
	body := map[string]any{
		"operation": OpTransfer,
		"assetId":   req.AssetID,
		"prevTxId":  req.PrevTxID,
		"metadata":  req.Metadata,
		"publicKey": req.PublicKey,
		"signature": req.Signature,
	}

	var resp commitResponse
	if err := l.do(ctx, http.MethodPost, "/transactions?mode=commit", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// FindAsset searches the ledger and filters for an exact match, since the
// node's search may return any asset mentioning the jurisdiction string
func (l *HTTPLedger) FindAsset(ctx context.Context, jurisdiction, resource string) (*Asset, error) {
	var assets []Asset
	path := "/assets?search=" + url.QueryEscape(jurisdiction)
	if err := l.do(ctx, http.MethodGet, path, nil, &assets); err != nil {
		return nil, err
	}

	for _, a := range assets {
		if a.Data.Kind == models.AssetKind &&
			a.Data.Jurisdiction == jurisdiction &&
			a.Data.Resource == resource {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

// ListTransactions returns all records for an asset, oldest first
func (l *HTTPLedger) ListTransactions(ctx context.Context, assetID string) ([]Transaction, error) {
	var txs []Transaction
	path := "/transactions?asset_id=" + url.QueryEscape(assetID)
	if err := l.do(ctx, http.MethodGet, path, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetTransaction looks up a single record by id
func (l *HTTPLedger) GetTransaction(ctx context.Context, txID string) (*Transaction, error) {
	var tx Transaction
	path := "/transactions/" + url.PathEscape(txID)
	err := l.do(ctx, http.MethodGet, path, nil, &tx)
	if apperror.IsKind(err, apperror.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Close releases idle connections
func (l *HTTPLedger) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

// do executes one request against the ledger node with a bounded deadline
func (l *HTTPLedger) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode ledger request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build ledger request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		l.log.Error("ledger call failed", "method", method, "path", path, "error", err)
		return apperror.Wrap(apperror.KindUpstream, err, "ledger %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperror.E(apperror.KindNotFound, "ledger %s %s: not found", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		l.log.Error("ledger call rejected", "method", method, "path", path, "status", resp.StatusCode)
		return apperror.E(apperror.KindUpstream, "ledger %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperror.Wrap(apperror.KindUpstream, err, "decode ledger response for %s %s", method, path)
		}
	}
	return nil
}
