package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hyperio-mc/hyper/lib/docstore"
	"github.com/hyperio-mc/hyper/rpc/common"
)

// NewDocStoreServerAdapter creates the adapter translating RPC messages
// into document store calls
func NewDocStoreServerAdapter() IRPCServerAdapter {
	return &docStoreServerAdapterImpl{}
}

type docStoreServerAdapterImpl struct{}

// statusOf derives the HTTP-style status code for an operation outcome
func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var storeErr *docstore.Error
	if errors.As(err, &storeErr) {
		return storeErr.Status()
	}
	return http.StatusInternalServerError
}

// badRequest builds a response for a request the adapter itself rejects,
// e.g. a payload that is not valid JSON
func badRequest(t common.MessageType, msg string) *common.Message {
	return &common.Message{
		MsgType: t,
		Ok:      false,
		Status:  http.StatusBadRequest,
		Err:     msg,
	}
}

func (adapter *docStoreServerAdapterImpl) Handle(req *common.Message, store docstore.IDocStore) *common.Message {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTNSCreate:
		err := store.CreateNamespace(req.Namespace)
		return common.NewCreateNamespaceResponse(statusOf(err), err)

	case common.MsgTNSRemove:
		err := store.RemoveNamespace(req.Namespace)
		return common.NewRemoveNamespaceResponse(statusOf(err), err)

	case common.MsgTDocCreate:
		doc, jsonErr := decodeBody(req.Value)
		if jsonErr != nil {
			return badRequest(req.MsgType, jsonErr.Error())
		}
		id, err := store.CreateDocument(req.Namespace, req.Key, doc)
		return common.NewCreateDocumentResponse(id, statusOf(err), err)

	case common.MsgTDocRetrieve:
		doc, err := store.RetrieveDocument(req.Namespace, req.Key)
		if err != nil {
			return common.NewRetrieveDocumentResponse(nil, statusOf(err), err)
		}
		payload, jsonErr := json.Marshal(doc)
		if jsonErr != nil {
			return common.NewRetrieveDocumentResponse(nil, http.StatusInternalServerError, jsonErr)
		}
		return common.NewRetrieveDocumentResponse(payload, http.StatusOK, nil)

	case common.MsgTDocUpdate:
		doc, jsonErr := decodeBody(req.Value)
		if jsonErr != nil {
			return badRequest(req.MsgType, jsonErr.Error())
		}
		id, err := store.UpdateDocument(req.Namespace, req.Key, doc)
		return common.NewUpdateDocumentResponse(id, statusOf(err), err)

	case common.MsgTDocRemove:
		id, err := store.RemoveDocument(req.Namespace, req.Key)
		return common.NewRemoveDocumentResponse(id, statusOf(err), err)

	case common.MsgTDocList:
		var opts docstore.ListOptions
		if len(req.Value) > 0 {
			if jsonErr := json.Unmarshal(req.Value, &opts); jsonErr != nil {
				return badRequest(req.MsgType, fmt.Sprintf("invalid list options: %v", jsonErr))
			}
		}
		docs, err := store.ListDocuments(req.Namespace, opts)
		if err != nil {
			return common.NewListDocumentsResponse(nil, statusOf(err), err)
		}
		payload, jsonErr := encodeDocs(docs)
		if jsonErr != nil {
			return common.NewListDocumentsResponse(nil, http.StatusInternalServerError, jsonErr)
		}
		return common.NewListDocumentsResponse(payload, http.StatusOK, nil)

	case common.MsgTDocQuery:
		var query docstore.Query
		if len(req.Value) > 0 {
			if jsonErr := json.Unmarshal(req.Value, &query); jsonErr != nil {
				return badRequest(req.MsgType, fmt.Sprintf("invalid query: %v", jsonErr))
			}
		}
		docs, err := store.QueryDocuments(req.Namespace, query)
		if err != nil {
			return common.NewQueryDocumentsResponse(nil, statusOf(err), err)
		}
		payload, jsonErr := encodeDocs(docs)
		if jsonErr != nil {
			return common.NewQueryDocumentsResponse(nil, http.StatusInternalServerError, jsonErr)
		}
		return common.NewQueryDocumentsResponse(payload, http.StatusOK, nil)

	case common.MsgTDocIndex:
		var spec common.IndexSpec
		if len(req.Value) > 0 {
			if jsonErr := json.Unmarshal(req.Value, &spec); jsonErr != nil {
				return badRequest(req.MsgType, fmt.Sprintf("invalid index spec: %v", jsonErr))
			}
		}
		err := store.IndexDocuments(req.Namespace, req.Key, spec.Fields, spec.PartialFilter)
		return common.NewIndexDocumentsResponse(statusOf(err), err)

	case common.MsgTDocBulk:
		docs := make([]docstore.Document, 0, len(req.Docs))
		for i, raw := range req.Docs {
			doc, jsonErr := decodeBody(raw)
			if jsonErr != nil {
				return badRequest(req.MsgType, fmt.Sprintf("invalid document at index %d: %v", i, jsonErr))
			}
			docs = append(docs, doc)
		}
		results, err := store.BulkDocuments(req.Namespace, docs)
		if err != nil {
			return common.NewBulkDocumentsResponse(nil, statusOf(err), err)
		}
		payload, jsonErr := json.Marshal(results)
		if jsonErr != nil {
			return common.NewBulkDocumentsResponse(nil, http.StatusInternalServerError, jsonErr)
		}
		return common.NewBulkDocumentsResponse(payload, http.StatusOK, nil)

	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC DocStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}

// decodeBody parses a JSON object payload into a document
func decodeBody(raw []byte) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid document body: %v", err)
	}
	return doc, nil
}

// encodeDocs serializes each document of a result set individually
func encodeDocs(docs []docstore.Document) ([][]byte, error) {
	encoded := make([][]byte, len(docs))
	for i, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		encoded[i] = payload
	}
	return encoded, nil
}
