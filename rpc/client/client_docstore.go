package client

import (
	"encoding/json"
	"fmt"

	"github.com/hyperio-mc/hyper/lib/docstore"
	"github.com/hyperio-mc/hyper/rpc/common"
	"github.com/hyperio-mc/hyper/rpc/serializer"
	"github.com/hyperio-mc/hyper/rpc/transport"
)

// NewRPCDocStore creates a new RPC document store client
// The function takes a config, a transport and a serializer as parameters
// It returns a docstore.IDocStore and an error
func NewRPCDocStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (docstore.IDocStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC document store
	s := rpcDocStore{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC document store
	return &s, nil
}

type rpcDocStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the docstore package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcDocStore) CreateNamespace(alias string) error {
	req := common.NewCreateNamespaceRequest(alias)
	_, err := invokeRPCRequest(req, i.transport, i.serializer)
	return err
}

func (i *rpcDocStore) RemoveNamespace(alias string) error {
	req := common.NewRemoveNamespaceRequest(alias)
	_, err := invokeRPCRequest(req, i.transport, i.serializer)
	return err
}

func (i *rpcDocStore) CreateDocument(alias, id string, doc docstore.Document) (string, error) {
	payload, err := encodeDocument(doc)
	if err != nil {
		return "", err
	}
	req := common.NewCreateDocumentRequest(alias, id, payload)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

func (i *rpcDocStore) RetrieveDocument(alias, id string) (docstore.Document, error) {
	req := common.NewRetrieveDocumentRequest(alias, id)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	return decodeDocument(resp.Value)
}

func (i *rpcDocStore) UpdateDocument(alias, id string, doc docstore.Document) (string, error) {
	payload, err := encodeDocument(doc)
	if err != nil {
		return "", err
	}
	req := common.NewUpdateDocumentRequest(alias, id, payload)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

func (i *rpcDocStore) RemoveDocument(alias, id string) (string, error) {
	req := common.NewRemoveDocumentRequest(alias, id)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

func (i *rpcDocStore) ListDocuments(alias string, opts docstore.ListOptions) ([]docstore.Document, error) {
	options, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list options: %v", err)
	}
	req := common.NewListDocumentsRequest(alias, options)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	return decodeDocuments(resp.Docs)
}

func (i *rpcDocStore) QueryDocuments(alias string, query docstore.Query) ([]docstore.Document, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %v", err)
	}
	req := common.NewQueryDocumentsRequest(alias, payload)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	return decodeDocuments(resp.Docs)
}

func (i *rpcDocStore) IndexDocuments(alias, name string, fields []string, partialFilter map[string]any) error {
	spec, err := json.Marshal(common.IndexSpec{Fields: fields, PartialFilter: partialFilter})
	if err != nil {
		return fmt.Errorf("failed to encode index spec: %v", err)
	}
	req := common.NewIndexDocumentsRequest(alias, name, spec)
	_, err = invokeRPCRequest(req, i.transport, i.serializer)
	return err
}

func (i *rpcDocStore) BulkDocuments(alias string, docs []docstore.Document) ([]docstore.BulkItemResult, error) {
	encoded := make([][]byte, len(docs))
	for idx, doc := range docs {
		payload, err := encodeDocument(doc)
		if err != nil {
			return nil, err
		}
		encoded[idx] = payload
	}
	req := common.NewBulkDocumentsRequest(alias, encoded)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	var results []docstore.BulkItemResult
	if err := json.Unmarshal(resp.Value, &results); err != nil {
		return nil, fmt.Errorf("failed to decode bulk results: %v", err)
	}
	return results, nil
}

// --------------------------------------------------------------------------
// Document Encoding Helpers
// --------------------------------------------------------------------------

func encodeDocument(doc docstore.Document) ([]byte, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %v", err)
	}
	return payload, nil
}

func decodeDocument(raw []byte) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %v", err)
	}
	return doc, nil
}

func decodeDocuments(raw [][]byte) ([]docstore.Document, error) {
	docs := make([]docstore.Document, len(raw))
	for i, payload := range raw {
		doc, err := decodeDocument(payload)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}
