package pebble

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/hyperio-mc/hyper/lib/engine"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// regionSep separates the region name from the key inside the shared
	// pebble key space. Region names must not contain this byte.
	regionSep = "\x00"

	// regionEnd is the smallest byte greater than regionSep. Appending it
	// to a region name yields the exclusive upper bound of that region's
	// key space.
	regionEnd = "\x01"

	defaultCacheSize    = 64 * 1024 * 1024 // 64MB
	defaultMemTableSize = 32 * 1024 * 1024 // 32MB
)

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Config holds optional settings for the pebble engine.
type Config struct {
	// FS is the filesystem pebble operates on. Defaults to the OS
	// filesystem; tests use vfs.NewMem().
	FS vfs.FS

	// CacheSizeBytes is the block cache size. Defaults to 64MB.
	CacheSizeBytes int64
}

func (c *Config) withDefaults() *Config {
	out := &Config{}
	if c != nil {
		*out = *c
	}
	if out.CacheSizeBytes <= 0 {
		out.CacheSizeBytes = defaultCacheSize
	}
	return out
}

// --------------------------------------------------------------------------
// Engine Implementation
// --------------------------------------------------------------------------

// pebbleEngine implements engine.Engine on top of a single pebble
// database. Every region is a key prefix within the shared key space,
// which keeps region opens cheap and makes region drops a single ranged
// delete.
type pebbleEngine struct {
	db     *pebble.DB
	path   string
	mu     sync.RWMutex // guards closed
	closed bool

	// regionLocks serializes Update transactions per region.
	regionLocks *xsync.MapOf[string, *sync.Mutex]
}

// NewPebbleEngine opens (or creates) a pebble-backed engine at the given
// path. A nil config selects defaults.
func NewPebbleEngine(path string, config *Config) (engine.Engine, error) {
	config = config.withDefaults()

	opts := &pebble.Options{
		Cache:        pebble.NewCache(config.CacheSizeBytes),
		MemTableSize: defaultMemTableSize,
	}
	if config.FS != nil {
		opts.FS = config.FS
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", path, err)
	}

	return &pebbleEngine{
		db:          db,
		path:        path,
		regionLocks: xsync.NewMapOf[string, *sync.Mutex](),
	}, nil
}

func (e *pebbleEngine) OpenRegion(name string) (engine.Region, error) {
	if err := validateRegionName(name); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, engine.ErrClosed
	}

	lock, _ := e.regionLocks.LoadOrCompute(name, func() *sync.Mutex {
		return &sync.Mutex{}
	})

	return &pebbleRegion{
		engine: e,
		name:   name,
		prefix: name + regionSep,
		lock:   lock,
	}, nil
}

func (e *pebbleEngine) DropRegion(name string) error {
	if err := validateRegionName(name); err != nil {
		return err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return engine.ErrClosed
	}

	if err := e.db.DeleteRange([]byte(name+regionSep), []byte(name+regionEnd), pebble.Sync); err != nil {
		return fmt.Errorf("pebble: drop region %s: %w", name, err)
	}
	e.regionLocks.Delete(name)
	return nil
}

func (e *pebbleEngine) Info() (engine.EngineInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return engine.EngineInfo{}, engine.ErrClosed
	}

	m := e.db.Metrics()
	return engine.EngineInfo{
		SizeBytes: int64(m.DiskSpaceUsage()),
		Type:      engine.ImplPebble,
		Path:      e.path,
	}, nil
}

func (e *pebbleEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.db.Close()
}

func validateRegionName(name string) error {
	if name == "" {
		return fmt.Errorf("pebble: empty region name")
	}
	if strings.Contains(name, regionSep) {
		return fmt.Errorf("pebble: region name contains reserved byte: %q", name)
	}
	return nil
}

// --------------------------------------------------------------------------
// Region Implementation
// --------------------------------------------------------------------------

type pebbleRegion struct {
	engine *pebbleEngine
	name   string
	prefix string
	lock   *sync.Mutex
}

func (r *pebbleRegion) Name() string {
	return r.name
}

func (r *pebbleRegion) Get(key string) ([]byte, bool, error) {
	r.engine.mu.RLock()
	defer r.engine.mu.RUnlock()
	if r.engine.closed {
		return nil, false, engine.ErrClosed
	}

	value, closer, err := r.engine.db.Get([]byte(r.prefix + key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	// the value is only valid until the closer is closed
	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

func (r *pebbleRegion) Has(key string) (bool, error) {
	_, found, err := r.Get(key)
	return found, err
}

func (r *pebbleRegion) Put(key string, value []byte) error {
	r.engine.mu.RLock()
	defer r.engine.mu.RUnlock()
	if r.engine.closed {
		return engine.ErrClosed
	}

	return r.engine.db.Set([]byte(r.prefix+key), value, pebble.Sync)
}

func (r *pebbleRegion) Delete(key string) error {
	r.engine.mu.RLock()
	defer r.engine.mu.RUnlock()
	if r.engine.closed {
		return engine.ErrClosed
	}

	return r.engine.db.Delete([]byte(r.prefix+key), pebble.Sync)
}

func (r *pebbleRegion) Iterate(opts engine.IterOptions, fn func(key string, value []byte) bool) error {
	r.engine.mu.RLock()
	defer r.engine.mu.RUnlock()
	if r.engine.closed {
		return engine.ErrClosed
	}

	// The region boundary doubles as the unbounded end: every key of the
	// region sorts below name+regionEnd.
	lower := []byte(r.prefix + opts.Start)
	upper := []byte(r.name + regionEnd)
	if opts.End != "" {
		upper = []byte(r.prefix + opts.End)
	}

	iter, err := r.engine.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	if opts.Reverse {
		for valid := iter.Last(); valid; valid = iter.Prev() {
			if !fn(string(iter.Key()[len(r.prefix):]), iter.Value()) {
				break
			}
		}
	} else {
		for valid := iter.First(); valid; valid = iter.Next() {
			if !fn(string(iter.Key()[len(r.prefix):]), iter.Value()) {
				break
			}
		}
	}

	return iter.Error()
}

func (r *pebbleRegion) Update(fn func(tx engine.Tx) error) error {
	r.engine.mu.RLock()
	defer r.engine.mu.RUnlock()
	if r.engine.closed {
		return engine.ErrClosed
	}

	// One Update at a time per region. This makes the read-check-write
	// sequences inside fn atomic with respect to each other.
	r.lock.Lock()
	defer r.lock.Unlock()

	batch := r.engine.db.NewIndexedBatch()
	if err := fn(&pebbleTx{batch: batch, prefix: r.prefix}); err != nil {
		_ = batch.Close()
		return err
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		_ = batch.Close()
		return err
	}
	return batch.Close()
}

// --------------------------------------------------------------------------
// Transaction Implementation
// --------------------------------------------------------------------------

// pebbleTx wraps an indexed batch so reads inside a transaction observe
// the transaction's own pending writes.
type pebbleTx struct {
	batch  *pebble.Batch
	prefix string
}

func (t *pebbleTx) Get(key string) ([]byte, bool, error) {
	value, closer, err := t.batch.Get([]byte(t.prefix + key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

func (t *pebbleTx) Put(key string, value []byte) error {
	return t.batch.Set([]byte(t.prefix+key), value, nil)
}

func (t *pebbleTx) Delete(key string) error {
	return t.batch.Delete([]byte(t.prefix+key), nil)
}
