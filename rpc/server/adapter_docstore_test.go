package server

import (
	"encoding/json"
	"testing"

	"github.com/hyperio-mc/hyper/lib/docstore"
	"github.com/hyperio-mc/hyper/lib/engine/engines/memory"
	"github.com/hyperio-mc/hyper/rpc/common"
)

func newTestAdapter(t *testing.T) (IRPCServerAdapter, docstore.IDocStore) {
	t.Helper()
	store, err := docstore.NewDocStore(memory.NewMemoryEngine())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return NewDocStoreServerAdapter(), store
}

func TestAdapterNamespaceFlow(t *testing.T) {
	adapter, store := newTestAdapter(t)

	resp := adapter.Handle(common.NewCreateNamespaceRequest("users"), store)
	if !resp.Ok || resp.Status != 200 {
		t.Fatalf("expected ok create, got %+v", resp)
	}

	// Creating the same alias again must surface the conflict status
	resp = adapter.Handle(common.NewCreateNamespaceRequest("users"), store)
	if resp.Ok || resp.Status != 409 || resp.Err == "" {
		t.Fatalf("expected conflict, got %+v", resp)
	}

	resp = adapter.Handle(common.NewRemoveNamespaceRequest("users"), store)
	if !resp.Ok || resp.Status != 200 {
		t.Fatalf("expected ok remove, got %+v", resp)
	}

	resp = adapter.Handle(common.NewRemoveNamespaceRequest("users"), store)
	if resp.Ok || resp.Status != 404 {
		t.Fatalf("expected not found, got %+v", resp)
	}
}

func TestAdapterDocumentFlow(t *testing.T) {
	adapter, store := newTestAdapter(t)
	adapter.Handle(common.NewCreateNamespaceRequest("users"), store)

	// Create
	resp := adapter.Handle(common.NewCreateDocumentRequest("users", "u1", []byte(`{"name":"ada"}`)), store)
	if !resp.Ok || resp.Status != 200 || resp.Key != "u1" {
		t.Fatalf("expected ok create, got %+v", resp)
	}

	// Retrieve
	resp = adapter.Handle(common.NewRetrieveDocumentRequest("users", "u1"), store)
	if !resp.Ok || resp.Status != 200 {
		t.Fatalf("expected ok retrieve, got %+v", resp)
	}
	var doc map[string]any
	if err := json.Unmarshal(resp.Value, &doc); err != nil {
		t.Fatalf("failed to decode document: %v", err)
	}
	if doc["_id"] != "u1" || doc["name"] != "ada" {
		t.Errorf("unexpected document: %v", doc)
	}

	// Invalid body is rejected by the adapter itself
	resp = adapter.Handle(common.NewCreateDocumentRequest("users", "u2", []byte(`{broken`)), store)
	if resp.Ok || resp.Status != 400 {
		t.Fatalf("expected bad request for invalid body, got %+v", resp)
	}

	// Update and remove
	resp = adapter.Handle(common.NewUpdateDocumentRequest("users", "u1", []byte(`{"name":"bob"}`)), store)
	if !resp.Ok || resp.Key != "u1" {
		t.Fatalf("expected ok update, got %+v", resp)
	}
	resp = adapter.Handle(common.NewRemoveDocumentRequest("users", "u1"), store)
	if !resp.Ok || resp.Key != "u1" {
		t.Fatalf("expected ok remove, got %+v", resp)
	}
	resp = adapter.Handle(common.NewRetrieveDocumentRequest("users", "u1"), store)
	if resp.Ok || resp.Status != 404 {
		t.Fatalf("expected not found, got %+v", resp)
	}
}

func TestAdapterListAndQuery(t *testing.T) {
	adapter, store := newTestAdapter(t)
	adapter.Handle(common.NewCreateNamespaceRequest("docs"), store)
	for _, id := range []string{"a", "b", "c"} {
		adapter.Handle(common.NewCreateDocumentRequest("docs", id, []byte(`{"key":"`+id+`"}`)), store)
	}

	// List with bounds
	opts, _ := json.Marshal(docstore.ListOptions{StartKey: "a", EndKey: "b"})
	resp := adapter.Handle(common.NewListDocumentsRequest("docs", opts), store)
	if !resp.Ok || len(resp.Docs) != 2 {
		t.Fatalf("expected two documents, got %+v", resp)
	}

	// Query with selector
	query := []byte(`{"selector":{"key":"c"},"fields":["key"]}`)
	resp = adapter.Handle(common.NewQueryDocumentsRequest("docs", query), store)
	if !resp.Ok || len(resp.Docs) != 1 {
		t.Fatalf("expected one match, got %+v", resp)
	}
	var match map[string]any
	if err := json.Unmarshal(resp.Docs[0], &match); err != nil {
		t.Fatalf("failed to decode match: %v", err)
	}
	if match["key"] != "c" {
		t.Errorf("unexpected match: %v", match)
	}

	// Unknown namespace surfaces 404
	resp = adapter.Handle(common.NewListDocumentsRequest("nope", nil), store)
	if resp.Ok || resp.Status != 404 {
		t.Fatalf("expected not found, got %+v", resp)
	}
}

func TestAdapterIndexAndBulk(t *testing.T) {
	adapter, store := newTestAdapter(t)
	adapter.Handle(common.NewCreateNamespaceRequest("docs"), store)

	spec, _ := json.Marshal(common.IndexSpec{Fields: []string{"name"}})
	resp := adapter.Handle(common.NewIndexDocumentsRequest("docs", "by-name", spec), store)
	if !resp.Ok || resp.Status != 200 {
		t.Fatalf("expected ok index, got %+v", resp)
	}

	resp = adapter.Handle(common.NewBulkDocumentsRequest("docs", [][]byte{
		[]byte(`{"_id":"a","v":1}`),
		[]byte(`{"v":2}`),
	}), store)
	if !resp.Ok || resp.Status != 200 {
		t.Fatalf("expected ok bulk, got %+v", resp)
	}

	var results []docstore.BulkItemResult
	if err := json.Unmarshal(resp.Value, &results); err != nil {
		t.Fatalf("failed to decode results: %v", err)
	}
	if len(results) != 2 || !results[0].OK || results[1].OK {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestAdapterUnsupportedType(t *testing.T) {
	adapter, store := newTestAdapter(t)

	resp := adapter.Handle(&common.Message{MsgType: common.MsgTCustom}, store)
	if resp.MsgType != common.MsgTError || resp.Err == "" {
		t.Fatalf("expected error response, got %+v", resp)
	}
}
