package docstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperio-mc/hyper/lib/engine"
	"github.com/hyperio-mc/hyper/lib/engine/engines/memory"
)

// newTestStore creates a store on a fresh in-memory engine.
func newTestStore(t *testing.T) IDocStore {
	t.Helper()
	store, err := NewDocStore(memory.NewMemoryEngine())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

// assertKind fails the test unless err is a *Error of the given kind.
func assertKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if storeErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, storeErr.Kind, storeErr)
	}
	return storeErr
}

func mustCreateNamespace(t *testing.T, store IDocStore, alias string) {
	t.Helper()
	if err := store.CreateNamespace(alias); err != nil {
		t.Fatalf("failed to create namespace '%s': %v", alias, err)
	}
}

func mustCreate(t *testing.T, store IDocStore, alias, id string, doc Document) {
	t.Helper()
	if _, err := store.CreateDocument(alias, id, doc); err != nil {
		t.Fatalf("failed to create document '%s': %v", id, err)
	}
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i], _ = doc["_id"].(string)
	}
	return out
}

func assertIDs(t *testing.T, docs []Document, want ...string) {
	t.Helper()
	got := ids(docs)
	if len(got) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, got)
		}
	}
}

// --------------------------------------------------------------------------
// Namespaces
// --------------------------------------------------------------------------

func TestNamespaceLifecycle(t *testing.T) {
	store := newTestStore(t)

	mustCreateNamespace(t, store, "users")

	err := store.CreateNamespace("users")
	storeErr := assertKind(t, err, KindConflict)
	if storeErr.Status() != 409 {
		t.Errorf("expected status 409, got %d", storeErr.Status())
	}

	if err := store.RemoveNamespace("users"); err != nil {
		t.Fatalf("failed to remove namespace: %v", err)
	}
	assertKind(t, store.RemoveNamespace("users"), KindNotFound)
}

func TestNamespaceEmptyAlias(t *testing.T) {
	store := newTestStore(t)
	assertKind(t, store.CreateNamespace(""), KindBadRequest)
}

func TestUnknownNamespace(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateDocument("nope", "a", Document{"x": 1})
	assertKind(t, err, KindNotFound)
	_, err = store.RetrieveDocument("nope", "a")
	assertKind(t, err, KindNotFound)
	_, err = store.ListDocuments("nope", ListOptions{})
	assertKind(t, err, KindNotFound)
	_, err = store.QueryDocuments("nope", Query{})
	assertKind(t, err, KindNotFound)
	_, err = store.BulkDocuments("nope", nil)
	assertKind(t, err, KindNotFound)
	assertKind(t, store.IndexDocuments("nope", "idx", []string{"x"}, nil), KindNotFound)
}

func TestRecreatedNamespaceIsEmpty(t *testing.T) {
	store := newTestStore(t)

	mustCreateNamespace(t, store, "cache")
	mustCreate(t, store, "cache", "k", Document{"v": "old"})

	if err := store.RemoveNamespace("cache"); err != nil {
		t.Fatalf("failed to remove namespace: %v", err)
	}
	mustCreateNamespace(t, store, "cache")

	_, err := store.RetrieveDocument("cache", "k")
	assertKind(t, err, KindNotFound)

	docs, err := store.ListDocuments("cache", ListOptions{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected empty namespace after recreation, got %d documents", len(docs))
	}
}

// --------------------------------------------------------------------------
// Document CRUD
// --------------------------------------------------------------------------

func TestCreateRetrieveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")

	doc := Document{"name": "ada", "age": float64(36), "tags": []any{"math"}}
	id, err := store.CreateDocument("users", "u1", doc)
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if id != "u1" {
		t.Errorf("expected id 'u1', got '%s'", id)
	}

	got, err := store.RetrieveDocument("users", "u1")
	if err != nil {
		t.Fatalf("failed to retrieve: %v", err)
	}
	if got["_id"] != "u1" {
		t.Errorf("expected _id 'u1', got %v", got["_id"])
	}
	if got["name"] != "ada" || got["age"] != float64(36) {
		t.Errorf("unexpected document: %v", got)
	}
}

func TestCreateConflict(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")
	mustCreate(t, store, "users", "u1", Document{"name": "ada"})

	_, err := store.CreateDocument("users", "u1", Document{"name": "bob"})
	assertKind(t, err, KindConflict)

	// The original document survives the rejected create.
	got, err := store.RetrieveDocument("users", "u1")
	if err != nil {
		t.Fatalf("failed to retrieve: %v", err)
	}
	if got["name"] != "ada" {
		t.Errorf("expected original document, got %v", got)
	}
}

func TestCreateBadRequest(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")

	_, err := store.CreateDocument("users", "u1", Document{})
	storeErr := assertKind(t, err, KindBadRequest)
	if storeErr.Status() != 400 {
		t.Errorf("expected status 400, got %d", storeErr.Status())
	}
	_, err = store.CreateDocument("users", "", Document{"x": 1})
	assertKind(t, err, KindBadRequest)
}

func TestUpdateUpserts(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")

	// Update of an absent id creates the document.
	if _, err := store.UpdateDocument("users", "u1", Document{"v": float64(1)}); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}
	if _, err := store.UpdateDocument("users", "u1", Document{"v": float64(2)}); err != nil {
		t.Fatalf("failed to replace: %v", err)
	}

	got, err := store.RetrieveDocument("users", "u1")
	if err != nil {
		t.Fatalf("failed to retrieve: %v", err)
	}
	if got["v"] != float64(2) {
		t.Errorf("expected replaced document, got %v", got)
	}
}

func TestUpdateEmptyDocument(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")

	// An empty body is a valid upsert, unlike for create.
	if _, err := store.UpdateDocument("users", "u1", Document{}); err != nil {
		t.Fatalf("failed to upsert empty document: %v", err)
	}

	got, err := store.RetrieveDocument("users", "u1")
	if err != nil {
		t.Fatalf("failed to retrieve: %v", err)
	}
	if len(got) != 1 || got["_id"] != "u1" {
		t.Errorf("expected only the id field, got %v", got)
	}
}

func TestRemoveDocument(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")
	mustCreate(t, store, "users", "u1", Document{"name": "ada"})

	id, err := store.RemoveDocument("users", "u1")
	if err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if id != "u1" {
		t.Errorf("expected id 'u1', got '%s'", id)
	}

	_, err = store.RetrieveDocument("users", "u1")
	assertKind(t, err, KindNotFound)
	_, err = store.RemoveDocument("users", "u1")
	assertKind(t, err, KindNotFound)
}

func TestDocumentIDNotStoredInBody(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")

	// A stray _id in the body is dropped, the key wins.
	mustCreate(t, store, "users", "real", Document{"_id": "fake", "x": float64(1)})
	got, err := store.RetrieveDocument("users", "real")
	if err != nil {
		t.Fatalf("failed to retrieve: %v", err)
	}
	if got["_id"] != "real" {
		t.Errorf("expected _id 'real', got %v", got["_id"])
	}
}

// --------------------------------------------------------------------------
// Listing
// --------------------------------------------------------------------------

func seedList(t *testing.T, store IDocStore) {
	t.Helper()
	mustCreateNamespace(t, store, "docs")
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		mustCreate(t, store, "docs", id, Document{"key": id})
	}
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)
	seedList(t, store)

	t.Run("All", func(t *testing.T) {
		docs, err := store.ListDocuments("docs", ListOptions{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		assertIDs(t, docs, "a", "b", "c", "d", "e")
	})

	t.Run("InclusiveBounds", func(t *testing.T) {
		docs, err := store.ListDocuments("docs", ListOptions{StartKey: "b", EndKey: "d"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		// Both bounds are inclusive.
		assertIDs(t, docs, "b", "c", "d")
	})

	t.Run("Descending", func(t *testing.T) {
		docs, err := store.ListDocuments("docs", ListOptions{StartKey: "b", EndKey: "d", Descending: true})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		assertIDs(t, docs, "d", "c", "b")
	})

	t.Run("Limit", func(t *testing.T) {
		docs, err := store.ListDocuments("docs", ListOptions{Limit: 2})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		assertIDs(t, docs, "a", "b")
	})

	t.Run("KeysIntersectBounds", func(t *testing.T) {
		docs, err := store.ListDocuments("docs", ListOptions{
			Keys:     []string{"a", "c", "e", "missing"},
			StartKey: "b",
			EndKey:   "e",
		})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		// "a" is outside the bounds, "missing" does not exist.
		assertIDs(t, docs, "c", "e")
	})

	t.Run("EmptyInterval", func(t *testing.T) {
		docs, err := store.ListDocuments("docs", ListOptions{StartKey: "x", EndKey: "z"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("expected no documents, got %v", ids(docs))
		}
	})
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

func seedQuery(t *testing.T, store IDocStore) {
	t.Helper()
	mustCreateNamespace(t, store, "people")
	mustCreate(t, store, "people", "p1", Document{"name": "ada", "age": float64(36), "city": "london"})
	mustCreate(t, store, "people", "p2", Document{"name": "bob", "age": float64(28), "city": "berlin"})
	mustCreate(t, store, "people", "p3", Document{"name": "eve", "age": float64(36)})
	mustCreate(t, store, "people", "p4", Document{"name": "mallory", "age": nil, "city": "berlin"})
}

func TestQuerySelectors(t *testing.T) {
	store := newTestStore(t)
	seedQuery(t, store)

	cases := []struct {
		name     string
		selector Document
		want     []string
	}{
		{"LiteralEquality", Document{"city": "berlin"}, []string{"p2", "p4"}},
		{"ExplicitEq", Document{"age": Document{"$eq": float64(36)}}, []string{"p1", "p3"}},
		{"NullMatchesAbsent", Document{"city": nil}, []string{"p3"}},
		{"NullMatchesNullValue", Document{"age": nil}, []string{"p4"}},
		{"Ne", Document{"city": Document{"$ne": "berlin"}}, []string{"p1", "p3"}},
		{"Gt", Document{"age": Document{"$gt": float64(28)}}, []string{"p1", "p3"}},
		{"Gte", Document{"age": Document{"$gte": float64(28)}}, []string{"p1", "p2", "p3"}},
		{"Lt", Document{"age": Document{"$lt": float64(36)}}, []string{"p2"}},
		{"Lte", Document{"age": Document{"$lte": float64(36)}}, []string{"p1", "p2", "p3"}},
		{"In", Document{"name": Document{"$in": []any{"ada", "eve"}}}, []string{"p1", "p3"}},
		{"Nin", Document{"name": Document{"$nin": []any{"ada", "eve"}}}, []string{"p2", "p4"}},
		{"ExistsTrue", Document{"city": Document{"$exists": true}}, []string{"p1", "p2", "p4"}},
		{"ExistsFalse", Document{"city": Document{"$exists": false}}, []string{"p3"}},
		{"Conjunction", Document{"city": "berlin", "age": float64(28)}, []string{"p2"}},
		{"NilSelectorMatchesAll", nil, []string{"p1", "p2", "p3", "p4"}},
		{"NoMatch", Document{"city": "paris"}, []string{}},
		{"UnknownOperator", Document{"age": Document{"$regex": "3.*"}}, []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			docs, err := store.QueryDocuments("people", Query{Selector: tc.selector})
			if err != nil {
				t.Fatalf("failed to query: %v", err)
			}
			assertIDs(t, docs, tc.want...)
		})
	}
}

func TestQuerySort(t *testing.T) {
	store := newTestStore(t)
	seedQuery(t, store)

	t.Run("Ascending", func(t *testing.T) {
		docs, err := store.QueryDocuments("people", Query{Sort: []SortKey{{Field: "name"}}})
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		assertIDs(t, docs, "p1", "p2", "p3", "p4")
	})

	t.Run("Descending", func(t *testing.T) {
		docs, err := store.QueryDocuments("people", Query{Sort: []SortKey{{Field: "name", Descending: true}}})
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		assertIDs(t, docs, "p4", "p3", "p2", "p1")
	})

	t.Run("NullAndAbsentSortFirst", func(t *testing.T) {
		docs, err := store.QueryDocuments("people", Query{Sort: []SortKey{{Field: "city"}}})
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		// p3 has no city, then berlin twice in stable id order.
		assertIDs(t, docs, "p3", "p2", "p4", "p1")
	})

	t.Run("SecondaryKey", func(t *testing.T) {
		docs, err := store.QueryDocuments("people", Query{Sort: []SortKey{
			{Field: "age", Descending: true},
			{Field: "name"},
		}})
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		// 36 twice (ada before eve), then 28, then null last.
		assertIDs(t, docs, "p1", "p3", "p2", "p4")
	})
}

func TestQueryPagingAndProjection(t *testing.T) {
	store := newTestStore(t)
	seedQuery(t, store)

	t.Run("SkipAndLimit", func(t *testing.T) {
		docs, err := store.QueryDocuments("people", Query{
			Sort:  []SortKey{{Field: "name"}},
			Skip:  1,
			Limit: 2,
		})
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		assertIDs(t, docs, "p2", "p3")
	})

	t.Run("SkipPastEnd", func(t *testing.T) {
		docs, err := store.QueryDocuments("people", Query{Skip: 100})
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("expected no documents, got %v", ids(docs))
		}
	})

	t.Run("ProjectionOmitsAbsentFields", func(t *testing.T) {
		docs, err := store.QueryDocuments("people", Query{
			Selector: Document{"name": "eve"},
			Fields:   []string{"name", "city"},
		})
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("expected one document, got %d", len(docs))
		}
		doc := docs[0]
		if doc["name"] != "eve" {
			t.Errorf("expected projected name, got %v", doc)
		}
		if _, ok := doc["city"]; ok {
			t.Errorf("expected absent field to be omitted, got %v", doc)
		}
		if _, ok := doc["_id"]; ok {
			t.Errorf("expected _id to be projected away, got %v", doc)
		}
	})

	t.Run("UseIndexIgnored", func(t *testing.T) {
		docs, err := store.QueryDocuments("people", Query{
			Selector: Document{"city": "berlin"},
			UseIndex: "no-such-index",
		})
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		assertIDs(t, docs, "p2", "p4")
	})
}

// --------------------------------------------------------------------------
// Indexes
// --------------------------------------------------------------------------

func TestIndexDocuments(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")

	if err := store.IndexDocuments("users", "by-name", []string{"name"}, nil); err != nil {
		t.Fatalf("failed to register index: %v", err)
	}
	// Re-registering the same name replaces the definition.
	if err := store.IndexDocuments("users", "by-name", []string{"name", "age"}, Document{"active": true}); err != nil {
		t.Fatalf("failed to replace index: %v", err)
	}

	assertKind(t, store.IndexDocuments("users", "", []string{"name"}, nil), KindBadRequest)
}

// --------------------------------------------------------------------------
// Bulk Writes
// --------------------------------------------------------------------------

func TestBulkDocuments(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")
	mustCreate(t, store, "users", "u1", Document{"v": float64(1)})

	results, err := store.BulkDocuments("users", []Document{
		{"_id": "u1", "v": float64(2)},       // upsert over existing
		{"_id": "u2", "v": float64(3)},       // fresh insert
		{"v": float64(4)},                    // missing id
		{"_id": float64(7), "v": float64(5)}, // non-string id
	})
	if err != nil {
		t.Fatalf("failed to bulk write: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	if !results[0].OK || results[0].ID != "u1" {
		t.Errorf("unexpected result for u1: %+v", results[0])
	}
	if !results[1].OK || results[1].ID != "u2" {
		t.Errorf("unexpected result for u2: %+v", results[1])
	}
	if results[2].OK || results[2].Msg == "" {
		t.Errorf("expected failure for missing id, got %+v", results[2])
	}
	if results[3].OK {
		t.Errorf("expected failure for non-string id, got %+v", results[3])
	}

	// Failed items do not abort the rest of the batch.
	got, err := store.RetrieveDocument("users", "u1")
	if err != nil {
		t.Fatalf("failed to retrieve: %v", err)
	}
	if got["v"] != float64(2) {
		t.Errorf("expected upserted document, got %v", got)
	}
	if _, err := store.RetrieveDocument("users", "u2"); err != nil {
		t.Errorf("expected u2 to exist: %v", err)
	}
}

func TestBulkEmptyBatch(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "users")

	results, err := store.BulkDocuments("users", nil)
	if err != nil {
		t.Fatalf("failed to bulk write: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

// rejectPutEngine wraps an engine and rejects writes to one key so that
// per-item write failures can be provoked.
type rejectPutEngine struct {
	engine.Engine
	key string
}

func (e *rejectPutEngine) OpenRegion(name string) (engine.Region, error) {
	region, err := e.Engine.OpenRegion(name)
	if err != nil {
		return nil, err
	}
	return &rejectPutRegion{Region: region, key: e.key}, nil
}

type rejectPutRegion struct {
	engine.Region
	key string
}

func (r *rejectPutRegion) Put(key string, value []byte) error {
	if key == r.key {
		return fmt.Errorf("write rejected for key '%s'", key)
	}
	return r.Region.Put(key, value)
}

func (r *rejectPutRegion) Update(fn func(tx engine.Tx) error) error {
	return r.Region.Update(func(tx engine.Tx) error {
		return fn(&rejectPutTx{Tx: tx, key: r.key})
	})
}

type rejectPutTx struct {
	engine.Tx
	key string
}

func (tx *rejectPutTx) Put(key string, value []byte) error {
	if key == tx.key {
		return fmt.Errorf("write rejected for key '%s'", key)
	}
	return tx.Tx.Put(key, value)
}

func TestBulkWriteFailureDoesNotAbortBatch(t *testing.T) {
	eng := &rejectPutEngine{Engine: memory.NewMemoryEngine(), key: "u2"}
	store, err := NewDocStore(eng)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	mustCreateNamespace(t, store, "users")

	results, err := store.BulkDocuments("users", []Document{
		{"_id": "u1", "v": float64(1)},
		{"_id": "u2", "v": float64(2)}, // write rejected by the engine
		{"_id": "u3", "v": float64(3)},
	})
	if err != nil {
		t.Fatalf("expected the batch to succeed, got %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if !results[0].OK || results[0].ID != "u1" {
		t.Errorf("unexpected result for u1: %+v", results[0])
	}
	if results[1].OK || results[1].ID != "u2" || results[1].Msg == "" {
		t.Errorf("expected recorded failure for u2, got %+v", results[1])
	}
	if !results[2].OK || results[2].ID != "u3" {
		t.Errorf("unexpected result for u3: %+v", results[2])
	}

	// The surviving items are committed, the rejected one is absent.
	if _, err := store.RetrieveDocument("users", "u1"); err != nil {
		t.Errorf("expected u1 to exist: %v", err)
	}
	_, err = store.RetrieveDocument("users", "u2")
	assertKind(t, err, KindNotFound)
	if _, err := store.RetrieveDocument("users", "u3"); err != nil {
		t.Errorf("expected u3 to exist: %v", err)
	}
}

// --------------------------------------------------------------------------
// Concurrency
// --------------------------------------------------------------------------

func TestConcurrentDocumentWrites(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "jobs")

	done := make(chan error, 8)
	for worker := 0; worker < 8; worker++ {
		go func(worker int) {
			for i := 0; i < 50; i++ {
				id := string(rune('a'+worker)) + "-" + string(rune('0'+i%10))
				if _, err := store.UpdateDocument("jobs", id, Document{"w": float64(worker)}); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(worker)
	}
	for worker := 0; worker < 8; worker++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent write failed: %v", err)
		}
	}

	docs, err := store.ListDocuments("jobs", ListOptions{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(docs) != 80 {
		t.Errorf("expected 80 documents, got %d", len(docs))
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	store := newTestStore(t)
	mustCreateNamespace(t, store, "locks")

	const racers = 16
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			_, err := store.CreateDocument("locks", "the-one", Document{"racer": float64(i)})
			errs <- err
		}(i)
	}

	winners := 0
	for i := 0; i < racers; i++ {
		err := <-errs
		if err == nil {
			winners++
			continue
		}
		assertKind(t, err, KindConflict)
	}
	if winners != 1 {
		t.Errorf("expected exactly one winning create, got %d", winners)
	}
}
