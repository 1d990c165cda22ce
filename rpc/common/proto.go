package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Namespace string   `json:"namespace,omitempty"` // Namespace alias, used by all document operations
	Key       string   `json:"key,omitempty"`       // Document id or index name
	Value     []byte   `json:"value,omitempty"`     // Single JSON payload: document body, options, query, results
	Docs      [][]byte `json:"docs,omitempty"`      // Multi document payload: list/query responses, bulk requests

	// Response only fields
	Ok     bool   `json:"ok"`               // Whether the operation succeeded
	Status int    `json:"status,omitempty"` // HTTP-style status code of the outcome
	Err    string `json:"err,omitempty"`    // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// IndexSpec is the JSON payload of an index registration request.
type IndexSpec struct {
	Fields        []string       `json:"fields"`
	PartialFilter map[string]any `json:"partial_filter,omitempty"`
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// newResponse creates a response of the given type. Ok and Err are
// derived from the error, the status code is passed through.
func newResponse(t MessageType, status int, err error) *Message {
	msg := &Message{
		MsgType: t,
		Ok:      err == nil,
		Status:  status,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewCreateNamespaceRequest creates a new CreateNamespace request
func NewCreateNamespaceRequest(namespace string) *Message {
	return &Message{
		MsgType:   MsgTNSCreate,
		Namespace: namespace,
	}
}

// NewCreateNamespaceResponse creates a new CreateNamespace response
func NewCreateNamespaceResponse(status int, err error) *Message {
	return newResponse(MsgTNSCreate, status, err)
}

// NewRemoveNamespaceRequest creates a new RemoveNamespace request
func NewRemoveNamespaceRequest(namespace string) *Message {
	return &Message{
		MsgType:   MsgTNSRemove,
		Namespace: namespace,
	}
}

// NewRemoveNamespaceResponse creates a new RemoveNamespace response
func NewRemoveNamespaceResponse(status int, err error) *Message {
	return newResponse(MsgTNSRemove, status, err)
}

// NewCreateDocumentRequest creates a new CreateDocument request
func NewCreateDocumentRequest(namespace, id string, doc []byte) *Message {
	return &Message{
		MsgType:   MsgTDocCreate,
		Namespace: namespace,
		Key:       id,
		Value:     doc,
	}
}

// NewCreateDocumentResponse creates a new CreateDocument response
func NewCreateDocumentResponse(id string, status int, err error) *Message {
	msg := newResponse(MsgTDocCreate, status, err)
	msg.Key = id
	return msg
}

// NewRetrieveDocumentRequest creates a new RetrieveDocument request
func NewRetrieveDocumentRequest(namespace, id string) *Message {
	return &Message{
		MsgType:   MsgTDocRetrieve,
		Namespace: namespace,
		Key:       id,
	}
}

// NewRetrieveDocumentResponse creates a new RetrieveDocument response
func NewRetrieveDocumentResponse(doc []byte, status int, err error) *Message {
	msg := newResponse(MsgTDocRetrieve, status, err)
	msg.Value = doc
	return msg
}

// NewUpdateDocumentRequest creates a new UpdateDocument request
func NewUpdateDocumentRequest(namespace, id string, doc []byte) *Message {
	return &Message{
		MsgType:   MsgTDocUpdate,
		Namespace: namespace,
		Key:       id,
		Value:     doc,
	}
}

// NewUpdateDocumentResponse creates a new UpdateDocument response
func NewUpdateDocumentResponse(id string, status int, err error) *Message {
	msg := newResponse(MsgTDocUpdate, status, err)
	msg.Key = id
	return msg
}

// NewRemoveDocumentRequest creates a new RemoveDocument request
func NewRemoveDocumentRequest(namespace, id string) *Message {
	return &Message{
		MsgType:   MsgTDocRemove,
		Namespace: namespace,
		Key:       id,
	}
}

// NewRemoveDocumentResponse creates a new RemoveDocument response
func NewRemoveDocumentResponse(id string, status int, err error) *Message {
	msg := newResponse(MsgTDocRemove, status, err)
	msg.Key = id
	return msg
}

// NewListDocumentsRequest creates a new ListDocuments request. The
// options are passed as their JSON encoding.
func NewListDocumentsRequest(namespace string, options []byte) *Message {
	return &Message{
		MsgType:   MsgTDocList,
		Namespace: namespace,
		Value:     options,
	}
}

// NewListDocumentsResponse creates a new ListDocuments response
func NewListDocumentsResponse(docs [][]byte, status int, err error) *Message {
	msg := newResponse(MsgTDocList, status, err)
	msg.Docs = docs
	return msg
}

// NewQueryDocumentsRequest creates a new QueryDocuments request. The
// query is passed as its JSON encoding.
func NewQueryDocumentsRequest(namespace string, query []byte) *Message {
	return &Message{
		MsgType:   MsgTDocQuery,
		Namespace: namespace,
		Value:     query,
	}
}

// NewQueryDocumentsResponse creates a new QueryDocuments response
func NewQueryDocumentsResponse(docs [][]byte, status int, err error) *Message {
	msg := newResponse(MsgTDocQuery, status, err)
	msg.Docs = docs
	return msg
}

// NewIndexDocumentsRequest creates a new IndexDocuments request. The
// index spec is passed as its JSON encoding, the index name as Key.
func NewIndexDocumentsRequest(namespace, name string, spec []byte) *Message {
	return &Message{
		MsgType:   MsgTDocIndex,
		Namespace: namespace,
		Key:       name,
		Value:     spec,
	}
}

// NewIndexDocumentsResponse creates a new IndexDocuments response
func NewIndexDocumentsResponse(status int, err error) *Message {
	return newResponse(MsgTDocIndex, status, err)
}

// NewBulkDocumentsRequest creates a new BulkDocuments request. Each
// document goes in as its own JSON encoding.
func NewBulkDocumentsRequest(namespace string, docs [][]byte) *Message {
	return &Message{
		MsgType:   MsgTDocBulk,
		Namespace: namespace,
		Docs:      docs,
	}
}

// NewBulkDocumentsResponse creates a new BulkDocuments response. The
// per-item results are passed as one JSON array.
func NewBulkDocumentsResponse(results []byte, status int, err error) *Message {
	msg := newResponse(MsgTDocBulk, status, err)
	msg.Value = results
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Ok:      err == nil,
		Meta:    meta,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Status:  500,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTNSCreate:
		return "createNamespace"
	case MsgTNSRemove:
		return "removeNamespace"
	case MsgTDocCreate:
		return "createDocument"
	case MsgTDocRetrieve:
		return "retrieveDocument"
	case MsgTDocUpdate:
		return "updateDocument"
	case MsgTDocRemove:
		return "removeDocument"
	case MsgTDocList:
		return "listDocuments"
	case MsgTDocQuery:
		return "queryDocuments"
	case MsgTDocIndex:
		return "indexDocuments"
	case MsgTDocBulk:
		return "bulkDocuments"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "createNamespace":
		*t = MsgTNSCreate
	case "removeNamespace":
		*t = MsgTNSRemove
	case "createDocument":
		*t = MsgTDocCreate
	case "retrieveDocument":
		*t = MsgTDocRetrieve
	case "updateDocument":
		*t = MsgTDocUpdate
	case "removeDocument":
		*t = MsgTDocRemove
	case "listDocuments":
		*t = MsgTDocList
	case "queryDocuments":
		*t = MsgTDocQuery
	case "indexDocuments":
		*t = MsgTDocIndex
	case "bulkDocuments":
		*t = MsgTDocBulk
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Namespace operations

	MsgTNSCreate // Register a new namespace
	MsgTNSRemove // Unregister a namespace and destroy its documents

	// Document operations

	MsgTDocCreate   // Create a document, fails if the id exists
	MsgTDocRetrieve // Retrieve a document by id
	MsgTDocUpdate   // Replace a document, creating it if absent
	MsgTDocRemove   // Delete a document by id
	MsgTDocList     // List documents in id order
	MsgTDocQuery    // Evaluate a declarative query
	MsgTDocIndex    // Register index metadata
	MsgTDocBulk     // Atomically upsert a batch of documents

	// Custom operations

	MsgTCustom // Custom operation type
)
