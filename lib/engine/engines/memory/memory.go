package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/hyperio-mc/hyper/lib/engine"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const btreeDegree = 32

// --------------------------------------------------------------------------
// Engine Implementation
// --------------------------------------------------------------------------

// memoryEngine implements engine.Engine with one ordered btree per
// region. It provides the same semantics as the pebble engine without
// durability and is intended for tests and ephemeral serving.
type memoryEngine struct {
	mu      sync.RWMutex // guards regions
	regions map[string]*memoryRegion
	closed  atomic.Bool
}

// NewMemoryEngine creates a new empty in-memory engine.
func NewMemoryEngine() engine.Engine {
	return &memoryEngine{
		regions: make(map[string]*memoryRegion),
	}
}

func (e *memoryEngine) OpenRegion(name string) (engine.Region, error) {
	if name == "" {
		return nil, fmt.Errorf("memory: empty region name")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return nil, engine.ErrClosed
	}

	if r, ok := e.regions[name]; ok {
		return r, nil
	}

	r := &memoryRegion{
		engine: e,
		name:   name,
		tree:   btree.NewG(btreeDegree, lessEntry),
	}
	e.regions[name] = r
	return r, nil
}

func (e *memoryEngine) DropRegion(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return engine.ErrClosed
	}

	if r, ok := e.regions[name]; ok {
		r.mu.Lock()
		r.dropped = true
		r.tree.Clear(false)
		r.mu.Unlock()
		delete(e.regions, name)
	}
	return nil
}

func (e *memoryEngine) Info() (engine.EngineInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed.Load() {
		return engine.EngineInfo{}, engine.ErrClosed
	}

	var size int64
	for _, r := range e.regions {
		r.mu.RLock()
		r.tree.Ascend(func(en entry) bool {
			size += int64(len(en.key) + len(en.value))
			return true
		})
		r.mu.RUnlock()
	}

	return engine.EngineInfo{
		SizeBytes: size,
		Type:      engine.ImplMemory,
	}, nil
}

func (e *memoryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed.Store(true)
	e.regions = make(map[string]*memoryRegion)
	return nil
}

// --------------------------------------------------------------------------
// Region Implementation
// --------------------------------------------------------------------------

type entry struct {
	key   string
	value []byte
}

func lessEntry(a, b entry) bool {
	return a.key < b.key
}

type memoryRegion struct {
	engine   *memoryEngine
	name     string
	mu       sync.RWMutex // guards tree and dropped
	updateMu sync.Mutex   // serializes Update transactions
	tree     *btree.BTreeG[entry]
	dropped  bool
}

func (r *memoryRegion) Name() string {
	return r.name
}

func (r *memoryRegion) Get(key string) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(); err != nil {
		return nil, false, err
	}

	en, ok := r.tree.Get(entry{key: key})
	if !ok {
		return nil, false, nil
	}
	result := make([]byte, len(en.value))
	copy(result, en.value)
	return result, true, nil
}

func (r *memoryRegion) Has(key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(); err != nil {
		return false, err
	}
	return r.tree.Has(entry{key: key}), nil
}

func (r *memoryRegion) Put(key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	r.tree.ReplaceOrInsert(entry{key: key, value: stored})
	return nil
}

func (r *memoryRegion) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	r.tree.Delete(entry{key: key})
	return nil
}

func (r *memoryRegion) Iterate(opts engine.IterOptions, fn func(key string, value []byte) bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(); err != nil {
		return err
	}

	ascend := func(it func(entry) bool) {
		switch {
		case opts.Start == "" && opts.End == "":
			r.tree.Ascend(it)
		case opts.End == "":
			r.tree.AscendGreaterOrEqual(entry{key: opts.Start}, it)
		default:
			r.tree.AscendRange(entry{key: opts.Start}, entry{key: opts.End}, it)
		}
	}

	if !opts.Reverse {
		ascend(func(en entry) bool {
			return fn(en.key, en.value)
		})
		return nil
	}

	// Reverse iteration collects the in-bounds entries first; the btree's
	// descend primitives use inclusive/exclusive bounds opposite to ours.
	var matched []entry
	ascend(func(en entry) bool {
		matched = append(matched, en)
		return true
	})
	for i := len(matched) - 1; i >= 0; i-- {
		if !fn(matched[i].key, matched[i].value) {
			break
		}
	}
	return nil
}

func (r *memoryRegion) Update(fn func(tx engine.Tx) error) error {
	r.updateMu.Lock()
	defer r.updateMu.Unlock()

	r.mu.RLock()
	if err := r.check(); err != nil {
		r.mu.RUnlock()
		return err
	}
	r.mu.RUnlock()

	tx := &memoryTx{region: r, pending: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}

	// Apply all pending writes atomically.
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	for key, value := range tx.pending {
		if value == nil {
			r.tree.Delete(entry{key: key})
		} else {
			r.tree.ReplaceOrInsert(entry{key: key, value: value})
		}
	}
	return nil
}

func (r *memoryRegion) check() error {
	if r.dropped {
		return fmt.Errorf("memory: region %s dropped", r.name)
	}
	if r.engine.closed.Load() {
		return engine.ErrClosed
	}
	return nil
}

// --------------------------------------------------------------------------
// Transaction Implementation
// --------------------------------------------------------------------------

// memoryTx buffers writes in an overlay map. A nil value marks a pending
// delete. Reads consult the overlay before the tree so the transaction
// observes its own writes.
type memoryTx struct {
	region  *memoryRegion
	pending map[string][]byte
}

func (t *memoryTx) Get(key string) ([]byte, bool, error) {
	if value, ok := t.pending[key]; ok {
		if value == nil {
			return nil, false, nil
		}
		return value, true, nil
	}
	return t.region.Get(key)
}

func (t *memoryTx) Put(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	t.pending[key] = stored
	return nil
}

func (t *memoryTx) Delete(key string) error {
	t.pending[key] = nil
	return nil
}
