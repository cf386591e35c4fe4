// Package cache memoises segmentation results on disk so repeated runs
// over the same trial and parameters skip detection.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// ErrMiss is returned by Get when no live entry exists for a key.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "fix/"

var logf = monitoring.Prefixed("cache")

// Config holds cache configuration.
type Config struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// TTL bounds entry lifetime. Zero keeps entries forever.
	TTL time.Duration
}

// Cache stores zstd-compressed fixation lists in badger.
type Cache struct {
	cfg     Config
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the cache described by cfg.
func Open(cfg Config) (*Cache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("cache path is required unless in-memory")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Cache{cfg: cfg, db: db, encoder: encoder, decoder: decoder}, nil
}

// Close releases the badger handle and codec resources.
func (c *Cache) Close() error {
	c.encoder.Close()
	c.decoder.Close()
	return c.db.Close()
}

// Key derives the cache key for a segmentation: the hex SHA-256 of the
// method, the JSON encoding of params and the raw bits of every sample.
func Key(method gaze.Method, params interface{}, samples []gaze.Sample) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write(paramsJSON)
	h.Write([]byte{0})

	var buf [24]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(s.Time))
		binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(s.X))
		binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(s.Y))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the fixations stored under key, or ErrMiss.
func (c *Cache) Get(key string) ([]gaze.Fixation, error) {
	var compressed []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	raw, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	var fixations []gaze.Fixation
	if err := json.Unmarshal(raw, &fixations); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if fixations == nil {
		fixations = []gaze.Fixation{}
	}
	return fixations, nil
}

// Put stores fixations under key, replacing any previous entry.
func (c *Cache) Put(key string, fixations []gaze.Fixation) error {
	raw, err := json.Marshal(fixations)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	compressed := c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), compressed)
		if c.cfg.TTL > 0 {
			e = e.WithTTL(c.cfg.TTL)
		}
		return txn.SetEntry(e)
	})
}

// GetOrCompute returns the cached fixations for key or runs compute and
// stores its result. hit reports whether the value came from the cache.
// A failing write is logged and does not fail the call.
func (c *Cache) GetOrCompute(key string, compute func() ([]gaze.Fixation, error)) (fixations []gaze.Fixation, hit bool, err error) {
	fixations, err = c.Get(key)
	if err == nil {
		return fixations, true, nil
	}
	if !errors.Is(err, ErrMiss) {
		logf("read failed, recomputing: %v", err)
	}

	fixations, err = compute()
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(key, fixations); err != nil {
		logf("write failed for %s: %v", key, err)
	}
	return fixations, false, nil
}

// Delete removes the entry stored under key.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}
