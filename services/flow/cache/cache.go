// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache stores analysis results in BadgerDB, keyed by a hash of the
// graph document that produced them.
//
// An analysis is a pure function of its document, so a hit can be returned
// as is. Entries expire after TTL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces result keys so the store can hold other records later.
const keyPrefix = "result/"

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache is closed")

// Config holds configuration for the result cache.
type Config struct {
	// Enabled turns the cache on. When false the service analyses every
	// request.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the directory for BadgerDB files. Ignored when InMemory is true.
	Dir string `json:"dir" yaml:"dir" validate:"required_if=Enabled true InMemory false"`

	// InMemory keeps the cache in RAM only.
	InMemory bool `json:"in_memory" yaml:"in_memory"`

	// TTL is how long an entry lives. Zero means entries never expire.
	TTL time.Duration `json:"ttl" yaml:"ttl" validate:"min=0"`

	// GCInterval is how often value log garbage collection runs on a
	// persistent cache. Zero disables it.
	GCInterval time.Duration `json:"gc_interval" yaml:"gc_interval" validate:"min=0"`
}

// Cache is a BadgerDB-backed byte store for analysis results.
//
// Thread Safety: Safe for concurrent use.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger

	stopGC chan struct{}
	gcDone chan struct{}
	once   sync.Once
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens the cache described by cfg.
//
// Description:
//
//	Opens BadgerDB at cfg.Dir, creating the directory if needed, or in
//	memory when cfg.InMemory is set. A persistent cache with a positive
//	GCInterval starts a background value log GC loop that Close stops.
//
// Inputs:
//
//	cfg - Cache configuration. Dir is required unless InMemory is true.
//	logger - Receives BadgerDB's own log lines. May be nil.
//
// Outputs:
//
//	*Cache - The opened cache. Caller must call Close() when done.
//	error - Non-nil if Dir is missing or the database cannot be opened.
func Open(cfg Config, logger *slog.Logger) (*Cache, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("cache dir is required for a persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := expandHome(cfg.Dir)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	c := &Cache{db: db, ttl: cfg.TTL, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		c.stopGC = make(chan struct{})
		c.gcDone = make(chan struct{})
		go c.runGC(cfg.GCInterval)
	}
	return c, nil
}

// Key returns the cache key for v, the hex SHA-256 of its JSON encoding.
// Struct fields encode in declaration order, so equal documents share a key.
func Key(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Get returns the value stored under key. The bool is false on a miss.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	if c.db.IsClosed() {
		return nil, false, ErrClosed
	}

	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (c *Cache) Put(key string, value []byte) error {
	if c.db.IsClosed() {
		return ErrClosed
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), value)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len() (int, error) {
	if c.db.IsClosed() {
		return 0, ErrClosed
	}

	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close stops garbage collection and closes the database. Safe to call
// multiple times.
func (c *Cache) Close() error {
	var err error
	c.once.Do(func() {
		if c.stopGC != nil {
			close(c.stopGC)
			<-c.gcDone
		}
		err = c.db.Close()
	})
	return err
}

func (c *Cache) runGC(interval time.Duration) {
	defer close(c.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopGC:
			return
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect.
			if err := c.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) && c.logger != nil {
				c.logger.Warn("cache value log GC failed", slog.String("error", err.Error()))
			}
		}
	}
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
