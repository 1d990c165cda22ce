package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a schemaless JSON object. Values follow the generic
// encoding/json mapping: strings, float64 numbers, bools, nested
// map[string]any objects, []any arrays and nil.
type Document = map[string]any

// --------------------------------------------------------------------------
// Operation Parameters
// --------------------------------------------------------------------------

// ListOptions narrows the result of ListDocuments. All bounds are
// inclusive; zero values leave the corresponding dimension unbounded.
type ListOptions struct {
	// Limit caps the number of returned documents. Zero or negative
	// means unlimited.
	Limit int `json:"limit,omitempty"`
	// StartKey is the inclusive lower id bound.
	StartKey string `json:"startkey,omitempty"`
	// EndKey is the inclusive upper id bound.
	EndKey string `json:"endkey,omitempty"`
	// Keys restricts the result to these ids. It composes with the
	// bounds: a document must satisfy both to be returned.
	Keys []string `json:"keys,omitempty"`
	// Descending reverses the traversal order. The bounds keep their
	// meaning.
	Descending bool `json:"descending,omitempty"`
}

// SortKey names a field to order by and the direction to order in.
//
// On the wire a sort key is either a bare field name (ascending) or a
// single-pair object {"field": "desc"}; both forms are accepted.
type SortKey struct {
	Field      string
	Descending bool
}

// UnmarshalJSON accepts both the string and the object form.
func (s *SortKey) UnmarshalJSON(data []byte) error {
	var field string
	if err := json.Unmarshal(data, &field); err == nil {
		s.Field = field
		s.Descending = false
		return nil
	}

	var pair map[string]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("sort key must be a string or a single-pair object: %w", err)
	}
	if len(pair) != 1 {
		return fmt.Errorf("sort key object must have exactly one entry, got %d", len(pair))
	}
	for field, dir := range pair {
		s.Field = field
		s.Descending = strings.EqualFold(dir, "desc")
	}
	return nil
}

// MarshalJSON emits the compact string form for ascending keys.
func (s SortKey) MarshalJSON() ([]byte, error) {
	if !s.Descending {
		return json.Marshal(s.Field)
	}
	return json.Marshal(map[string]string{s.Field: "desc"})
}

// Query describes a declarative selection over all documents of a
// namespace. Documents are filtered by Selector, ordered by Sort,
// windowed by Skip and Limit and finally reduced to Fields.
type Query struct {
	// Selector is the match condition. A nil selector matches every
	// document.
	Selector Document `json:"selector,omitempty"`
	// Fields projects the result documents to the named fields.
	// Absent fields are omitted, not filled with null. Empty means
	// full documents.
	Fields []string `json:"fields,omitempty"`
	// Sort orders the filtered documents. Empty leaves them in id
	// order.
	Sort []SortKey `json:"sort,omitempty"`
	// Limit caps the result after skipping. Zero or negative means
	// unlimited.
	Limit int `json:"limit,omitempty"`
	// Skip drops the first n filtered documents.
	Skip int `json:"skip,omitempty"`
	// UseIndex is accepted for interface compatibility and ignored;
	// every query is evaluated as a full scan.
	UseIndex string `json:"use_index,omitempty"`
}

// BulkItemResult reports the outcome of one item of a bulk write.
type BulkItemResult struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Msg string `json:"msg,omitempty"`
}

// --------------------------------------------------------------------------
// Store Interface
// --------------------------------------------------------------------------

// IDocStore is the document store. It multiplexes named namespaces
// over a single ordered key-value engine and offers conflict-aware
// CRUD, ordered listing, declarative queries and atomic bulk writes
// per namespace.
//
// All methods are safe for concurrent use. Every returned error is a
// *Error carrying a kind and an HTTP-style status code.
type IDocStore interface {
	// CreateNamespace registers a new namespace under the given alias.
	// It fails with a Conflict error if the alias is already taken.
	CreateNamespace(alias string) error

	// RemoveNamespace unregisters the alias and destroys all documents
	// of the namespace. It fails with a NotFound error for unknown
	// aliases.
	RemoveNamespace(alias string) error

	// CreateDocument stores doc under id and returns the id. It fails
	// with a Conflict error if the id already exists and with a
	// BadRequest error for empty documents.
	CreateDocument(alias, id string, doc Document) (string, error)

	// RetrieveDocument returns the document stored under id with its
	// id merged in under "_id".
	RetrieveDocument(alias, id string) (Document, error)

	// UpdateDocument unconditionally replaces the document under id,
	// creating it if absent, and returns the id.
	UpdateDocument(alias, id string, doc Document) (string, error)

	// RemoveDocument deletes the document under id and returns the id.
	// It fails with a NotFound error if the id does not exist.
	RemoveDocument(alias, id string) (string, error)

	// ListDocuments returns documents in id order, narrowed by opts.
	// Each document carries its id under "_id".
	ListDocuments(alias string, opts ListOptions) ([]Document, error)

	// QueryDocuments evaluates a declarative query over all documents
	// of the namespace.
	QueryDocuments(alias string, query Query) ([]Document, error)

	// IndexDocuments registers index metadata under the given name,
	// replacing any previous definition of that name.
	IndexDocuments(alias, name string, fields []string, partialFilter Document) error

	// BulkDocuments upserts all docs in one atomic batch. Each doc is
	// addressed by its "_id" field. The per-item results are returned
	// in input order; items without a usable id or whose write the
	// engine rejects are reported as failed without aborting the batch.
	BulkDocuments(alias string, docs []Document) ([]BulkItemResult, error)
}
