package engine

import "errors"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplPebble Implementation = "pebble"
	ImplMemory Implementation = "memory"
)

// EngineInfo holds metadata about an engine instance.
// Size statistics are estimates; a precise calculation can be expensive.
type EngineInfo struct {
	SizeBytes int64          `json:"size_bytes"`
	Type      Implementation `json:"engine_type"`
	Path      string         `json:"path,omitempty"`
}

// ErrClosed is returned by all operations after the engine has been closed.
var ErrClosed = errors.New("engine: closed")

// IterOptions bounds an ordered iteration over a region's key space.
// Start is inclusive, End is exclusive. An empty bound means unbounded
// on that side. Reverse iterates from the upper bound downwards.
type IterOptions struct {
	Start   string
	End     string
	Reverse bool
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// Engine is the interface to an ordered key-value storage engine.
// An engine hosts any number of named regions; each region is an
// independent, ordered key space. Durability, crash recovery and write
// atomicity are properties of the implementation, not of callers.
type Engine interface {

	// OpenRegion opens (or creates) the region with the given name and
	// returns a handle to it. Opening the same name twice returns handles
	// onto the same key space.
	OpenRegion(name string) (Region, error)

	// DropRegion removes the region with the given name and all keys in
	// it. Dropping a region that was never opened is not an error.
	DropRegion(name string) error

	// Info returns metadata about the engine.
	Info() (EngineInfo, error)

	// Close closes the engine. All region handles become invalid.
	Close() error
}

// Region is an opened handle onto one region of an engine.
type Region interface {

	// Name returns the region name the handle was opened under.
	Name() string

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether the key was found.
	Get(key string) (value []byte, found bool, err error)

	// Has checks whether a key exists without loading its value.
	Has(key string) (found bool, err error)

	// Put inserts or updates a key-value pair.
	Put(key string, value []byte) error

	// Delete removes a key-value pair. Deleting an absent key is a no-op.
	Delete(key string) error

	// Iterate walks the region's keys in order within the given bounds,
	// calling fn for each pair. Iteration stops early when fn returns
	// false. The value slice is only valid for the duration of the call.
	Iterate(opts IterOptions, fn func(key string, value []byte) bool) error

	// Update runs fn inside one atomic transaction. Writes made through
	// the Tx are visible to subsequent Tx reads and are committed
	// together when fn returns nil, or discarded entirely when fn
	// returns an error.
	Update(fn func(tx Tx) error) error
}

// Tx is the handle passed to Region.Update.
type Tx interface {
	Get(key string) (value []byte, found bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error
}
