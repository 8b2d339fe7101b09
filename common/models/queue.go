package models

import (
	"fmt"
	"time"
)

// AssetKind discriminates waitlist assets from unrelated assets on a shared ledger
const AssetKind = "fila-transplantes"

// QueueKey identifies one logical waitlist
type QueueKey struct {
	Jurisdiction string `json:"jurisdiction"`
	Resource     string `json:"resource"`
}

func (k QueueKey) String() string {
	return k.Jurisdiction + "/" + k.Resource
}

// AssetData is the immutable identity payload committed at genesis
type AssetData struct {
	Kind         string `json:"tipo"`
	Jurisdiction string `json:"estado"`
	Resource     string `json:"orgao"`
}

// NewAssetData builds the genesis asset payload for a queue
func NewAssetData(key QueueKey) AssetData {
	return AssetData{
		Kind:         AssetKind,
		Jurisdiction: key.Jurisdiction,
		Resource:     key.Resource,
	}
}

// EventKind labels what a version represents
type EventKind string

const (
	EventCreated EventKind = "created"
	EventAdded   EventKind = "added"
	EventCalled  EventKind = "called"
)

// Entry is one queued person, carrying only masked personal data
type Entry struct {
	MaskedID   string `json:"maskedId"`
	MaskedName string `json:"maskedName"`
	Position   int    `json:"position"`
}

// VersionMeta is the signed content of one version record.
// Version is a typed integer; Label is derived from it and never parsed.
type VersionMeta struct {
	Version   int64     `json:"version"`
	Label     string    `json:"label"`
	Event     EventKind `json:"event"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Entries   []Entry   `json:"entries"`
	Added     *Entry    `json:"added,omitempty"`
	Called    *Entry    `json:"called,omitempty"`
}

// VersionLabel renders the human-facing label for a version number
func VersionLabel(version int64) string {
	return fmt.Sprintf("v%d", version)
}

// VersionRecord is one immutable link in a queue's chain
type VersionRecord struct {
	TxID     string `json:"txId"`
	AssetID  string `json:"assetId"`
	PrevTxID string `json:"prevTxId,omitempty"`
	VersionMeta
}

// Snapshot returns a defensive copy of the record's entries
func (r *VersionRecord) Snapshot() []Entry {
	entries := make([]Entry, len(r.Entries))
	copy(entries, r.Entries)
	return entries
}
