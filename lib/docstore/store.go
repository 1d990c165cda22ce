package docstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/hyperio-mc/hyper/lib/engine"
	"github.com/hyperio-mc/hyper/lib/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// Logger is the logger for the document store.
var Logger = logger.GetLogger("docstore")

// --------------------------------------------------------------------------
// Meta Region Layout
// --------------------------------------------------------------------------

// The registry lives in a dedicated engine region. Namespace records
// are keyed "ns/<alias>", index records "idx/<name>". Generated
// internal region names always start with "ns_", so the meta region
// name can never collide with one.
const (
	metaRegionName = "hyper.meta"
	nsKeyPrefix    = "ns/"
	idxKeyPrefix   = "idx/"
)

// namespaceRecord is the persisted registry entry for one namespace.
type namespaceRecord struct {
	Alias     string    `json:"alias"`
	Name      string    `json:"name"` // internal engine region name
	CreatedAt time.Time `json:"created_at"`
}

// indexRecord is the persisted metadata for one registered index.
type indexRecord struct {
	Namespace     string    `json:"namespace"`
	Name          string    `json:"name"`
	Fields        []string  `json:"fields"`
	PartialFilter Document  `json:"partial_filter,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func nsKey(alias string) string { return nsKeyPrefix + alias }
func idxKey(name string) string { return idxKeyPrefix + name }

// newInternalName derives a fresh engine region name for a namespace.
// The name is unique for the lifetime of the store, so a removed and
// recreated alias never sees stale documents.
func newInternalName() string {
	return fmt.Sprintf("ns_%d_%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// opCounter returns the operation counter for the given operation.
func opCounter(op string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`hyper_docstore_ops_total{op=%q}`, op))
}

// --------------------------------------------------------------------------
// Store Implementation
// --------------------------------------------------------------------------

// docStore implements IDocStore on top of an ordered key-value engine.
// Each namespace maps to one engine region; open region handles are
// cached per alias.
type docStore struct {
	engine  engine.Engine
	meta    engine.Region
	handles *xsync.MapOf[string, engine.Region]
}

// NewDocStore creates a document store on top of the given engine.
// The registry region is opened eagerly so a broken engine surfaces
// at construction time.
func NewDocStore(e engine.Engine) (IDocStore, error) {
	meta, err := e.OpenRegion(metaRegionName)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry region: %w", err)
	}
	return &docStore{
		engine:  e,
		meta:    meta,
		handles: xsync.NewMapOf[string, engine.Region](),
	}, nil
}

// resolve looks the alias up in the registry and returns its record.
func (s *docStore) resolve(op, alias string) (namespaceRecord, *Error) {
	var rec namespaceRecord
	value, found, err := s.meta.Get(nsKey(alias))
	if err != nil {
		return rec, newEngineError(op, err)
	}
	if !found {
		return rec, newNotFound(fmt.Sprintf("namespace '%s' not found", alias))
	}
	if err := json.Unmarshal(value, &rec); err != nil {
		return rec, newEngineError(op, fmt.Errorf("corrupt registry record for '%s': %w", alias, err))
	}
	return rec, nil
}

// handle returns the cached region for the alias, resolving and
// opening it on first use. Opening the same region twice is harmless,
// so a racing first use needs no extra synchronization beyond the
// cache itself.
func (s *docStore) handle(op, alias string) (engine.Region, *Error) {
	if region, ok := s.handles.Load(alias); ok {
		return region, nil
	}

	rec, serr := s.resolve(op, alias)
	if serr != nil {
		return nil, serr
	}

	region, err := s.engine.OpenRegion(rec.Name)
	if err != nil {
		return nil, newEngineError(op, err)
	}
	actual, _ := s.handles.LoadOrStore(alias, region)
	return actual, nil
}

// --------------------------------------------------------------------------
// Namespace Operations
// --------------------------------------------------------------------------

func (s *docStore) CreateNamespace(alias string) error {
	opCounter("create_namespace").Inc()
	const op = "create_namespace"

	if alias == "" {
		return newBadRequest("namespace alias must not be empty")
	}

	rec := namespaceRecord{
		Alias:     alias,
		Name:      newInternalName(),
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return newEngineError(op, err)
	}

	// The existence check and the insert run in one engine
	// transaction, so two racing creates cannot both win.
	err = s.meta.Update(func(tx engine.Tx) error {
		if _, found, err := tx.Get(nsKey(alias)); err != nil {
			return err
		} else if found {
			return newConflict(fmt.Sprintf("namespace '%s' already exists", alias))
		}
		return tx.Put(nsKey(alias), payload)
	})
	if err != nil {
		return asStoreError(op, err)
	}

	region, err := s.engine.OpenRegion(rec.Name)
	if err != nil {
		return newEngineError(op, err)
	}
	s.handles.Store(alias, region)

	Logger.Infof("created namespace '%s' as region '%s'", alias, rec.Name)
	return nil
}

func (s *docStore) RemoveNamespace(alias string) error {
	opCounter("remove_namespace").Inc()
	const op = "remove_namespace"

	var rec namespaceRecord
	err := s.meta.Update(func(tx engine.Tx) error {
		value, found, err := tx.Get(nsKey(alias))
		if err != nil {
			return err
		}
		if !found {
			return newNotFound(fmt.Sprintf("namespace '%s' not found", alias))
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("corrupt registry record for '%s': %w", alias, err)
		}
		return tx.Delete(nsKey(alias))
	})
	if err != nil {
		return asStoreError(op, err)
	}

	s.handles.Delete(alias)
	if err := s.engine.DropRegion(rec.Name); err != nil {
		return newEngineError(op, err)
	}

	Logger.Infof("removed namespace '%s' (region '%s')", alias, rec.Name)
	return nil
}
