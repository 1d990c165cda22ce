package docstore

import (
	"encoding/json"
	"fmt"

	"github.com/hyperio-mc/hyper/lib/engine"
)

// idField is the reserved document field carrying the id on read
// paths. It is stripped before a document body is persisted so the id
// lives only in the engine key.
const idField = "_id"

// encodeDocument serializes a document body, dropping the reserved id
// field if present.
func encodeDocument(doc Document) ([]byte, error) {
	if _, ok := doc[idField]; ok {
		body := make(Document, len(doc)-1)
		for k, v := range doc {
			if k != idField {
				body[k] = v
			}
		}
		doc = body
	}
	return json.Marshal(doc)
}

// decodeDocument deserializes a stored document body and merges the
// id back in.
func decodeDocument(id string, value []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(value, &doc); err != nil {
		return nil, fmt.Errorf("corrupt document '%s': %w", id, err)
	}
	doc[idField] = id
	return doc, nil
}

// --------------------------------------------------------------------------
// Document CRUD
// --------------------------------------------------------------------------

func (s *docStore) CreateDocument(alias, id string, doc Document) (string, error) {
	opCounter("create_document").Inc()
	const op = "create_document"

	if id == "" {
		return "", newBadRequest("document id must not be empty")
	}
	if len(doc) == 0 {
		return "", newBadRequest("document must not be empty")
	}

	region, serr := s.handle(op, alias)
	if serr != nil {
		return "", serr
	}

	payload, err := encodeDocument(doc)
	if err != nil {
		return "", newBadRequest(fmt.Sprintf("document is not serializable: %v", err))
	}

	err = region.Update(func(tx engine.Tx) error {
		if _, found, err := tx.Get(id); err != nil {
			return err
		} else if found {
			return newConflict(fmt.Sprintf("document '%s' already exists", id))
		}
		return tx.Put(id, payload)
	})
	if err != nil {
		return "", asStoreError(op, err)
	}
	return id, nil
}

func (s *docStore) RetrieveDocument(alias, id string) (Document, error) {
	opCounter("retrieve_document").Inc()
	const op = "retrieve_document"

	region, serr := s.handle(op, alias)
	if serr != nil {
		return nil, serr
	}

	value, found, err := region.Get(id)
	if err != nil {
		return nil, newEngineError(op, err)
	}
	if !found {
		return nil, newNotFound(fmt.Sprintf("document '%s' not found", id))
	}

	doc, err := decodeDocument(id, value)
	if err != nil {
		return nil, newEngineError(op, err)
	}
	return doc, nil
}

func (s *docStore) UpdateDocument(alias, id string, doc Document) (string, error) {
	opCounter("update_document").Inc()
	const op = "update_document"

	if id == "" {
		return "", newBadRequest("document id must not be empty")
	}

	region, serr := s.handle(op, alias)
	if serr != nil {
		return "", serr
	}

	payload, err := encodeDocument(doc)
	if err != nil {
		return "", newBadRequest(fmt.Sprintf("document is not serializable: %v", err))
	}

	// Unconditional replace, creates the document if absent. Unlike
	// create, an empty body is allowed here.
	if err := region.Put(id, payload); err != nil {
		return "", newEngineError(op, err)
	}
	return id, nil
}

func (s *docStore) RemoveDocument(alias, id string) (string, error) {
	opCounter("remove_document").Inc()
	const op = "remove_document"

	region, serr := s.handle(op, alias)
	if serr != nil {
		return "", serr
	}

	err := region.Update(func(tx engine.Tx) error {
		if _, found, err := tx.Get(id); err != nil {
			return err
		} else if !found {
			return newNotFound(fmt.Sprintf("document '%s' not found", id))
		}
		return tx.Delete(id)
	})
	if err != nil {
		return "", asStoreError(op, err)
	}
	return id, nil
}
