// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package store persists the offline snapshots the player replays when the
// CMS is unreachable: the last successful settings, schedule, and
// required-files responses, plus the display's hardware identity.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/signawave/signawave/internal/logging"
	"github.com/signawave/signawave/internal/schedule"
	"github.com/signawave/signawave/internal/transport"
)

// Key prefixes for BadgerDB storage.
const (
	snapshotKeyPrefix = "snapshot:"
	identityKey       = "identity:hardware-key"
)

// Snapshot keys. Exactly three snapshots exist.
const (
	KeySettings      = "settings"
	KeySchedule      = "schedule"
	KeyRequiredFiles = "requiredFiles"
)

// Snapshot is the hydrated offline state. Any field may be nil when the
// player has never completed the corresponding CMS exchange.
type Snapshot struct {
	Settings      *transport.RegistrationResult
	Schedule      *schedule.Schedule
	RequiredFiles *transport.RequiredFilesResult
}

// Store is the BadgerDB-backed offline store.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at path. An empty path with inMemory set
// runs without disk persistence; tests use this.
func Open(path string, inMemory bool) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(nil)
	if inMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open offline store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load hydrates all snapshots in one shot at startup. Missing entries stay
// nil; corrupt entries are dropped with a warning rather than failing the
// boot.
func (s *Store) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.db.View(func(txn *badger.Txn) error {
		loadJSON(txn, KeySettings, &snap.Settings)
		loadJSON(txn, KeySchedule, &snap.Schedule)
		loadJSON(txn, KeyRequiredFiles, &snap.RequiredFiles)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	return snap, nil
}

// loadJSON reads one snapshot into out (a pointer to pointer). Absent keys
// and unmarshal failures leave out untouched.
func loadJSON[T any](txn *badger.Txn, key string, out **T) {
	item, err := txn.Get([]byte(snapshotKeyPrefix + key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return
	}
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("snapshot read failed")
		return
	}
	err = item.Value(func(val []byte) error {
		var v T
		if err := json.Unmarshal(val, &v); err != nil {
			return err
		}
		*out = &v
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("snapshot unmarshal failed, dropping")
	}
}

// Save persists one snapshot. Fire-and-forget: failures are logged, never
// propagated, since a broken disk must not stop playback.
func (s *Store) Save(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("snapshot marshal failed")
		return
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(snapshotKeyPrefix+key), data)
	})
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("snapshot write failed")
	}
}

// HasCachedData reports whether a schedule snapshot exists, which is the
// gate for offline mode.
func (s *Store) HasCachedData() bool {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(snapshotKeyPrefix + KeySchedule))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Msg("offline cache probe failed")
		return false
	}
	return found
}

// HardwareKey returns the display's persistent identity, creating one on
// first use. Registration requires a stable key across restarts.
func (s *Store) HardwareKey() (string, error) {
	var key string
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(identityKey))
		if err == nil {
			return item.Value(func(val []byte) error {
				key = string(val)
				return nil
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		key = uuid.New().String()
		return txn.Set([]byte(identityKey), []byte(key))
	})
	if err != nil {
		return "", fmt.Errorf("hardware key: %w", err)
	}
	return key, nil
}
