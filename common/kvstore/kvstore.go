// Package kvstore provides a small embedded key-value persistence layer for
// the durable maps the service keeps: jurisdiction keypairs and asset
// identities. Opened at startup, synced on every mutating write, closed at
// shutdown.
package kvstore

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
)

// Store is a Pebble-backed durable key-value store
type Store struct {
	db   *pebble.DB
	path string
	log  *logger.Logger
}

// Open opens (or creates) the store at the given path
func Open(path string, log *logger.Logger) (*Store, error) {
	opts := &pebble.Options{
		Logger: &pebbleLogger{log},
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open %s: %w", path, err)
	}
	log.Info("kv store opened", "path", path)
	return &Store{db: db, path: path, log: log}, nil
}

// Get retrieves a value by key. Returns (nil, false, nil) when absent.
func (s *Store) Get(key string) ([]byte, bool, error) {
	data, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()

	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Put stores a value, synced to disk before returning
func (s *Store) Put(key string, value []byte) error {
	if err := s.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

// Delete removes a key, synced to disk before returning
func (s *Store) Delete(key string) error {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	return nil
}

// Close flushes and closes the store
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// pebbleLogger adapts our logger to pebble's Logger interface
type pebbleLogger struct {
	log *logger.Logger
}

func (p *pebbleLogger) Infof(format string, args ...interface{}) {
	p.log.Debug(fmt.Sprintf(format, args...))
}

func (p *pebbleLogger) Errorf(format string, args ...interface{}) {
	p.log.Error(fmt.Sprintf(format, args...))
}

func (p *pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.log.Error(fmt.Sprintf(format, args...))
}
