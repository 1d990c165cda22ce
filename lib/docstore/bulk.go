package docstore

import (
	"fmt"

	"github.com/hyperio-mc/hyper/lib/engine"
)

func (s *docStore) BulkDocuments(alias string, docs []Document) ([]BulkItemResult, error) {
	opCounter("bulk_documents").Inc()
	const op = "bulk_documents"

	region, serr := s.handle(op, alias)
	if serr != nil {
		return nil, serr
	}

	// All upserts run in one engine transaction. A failed item, be it
	// an unusable id or a rejected write, is recorded in its result
	// slot and does not abort the batch. Only a failed commit does,
	// in which case nothing is applied.
	results := make([]BulkItemResult, 0, len(docs))
	err := region.Update(func(tx engine.Tx) error {
		for _, doc := range docs {
			id, ok := doc[idField].(string)
			if !ok || id == "" {
				results = append(results, BulkItemResult{
					OK:  false,
					Msg: "document has no usable '_id' field",
				})
				continue
			}

			payload, err := encodeDocument(doc)
			if err != nil {
				results = append(results, BulkItemResult{
					OK:  false,
					ID:  id,
					Msg: fmt.Sprintf("document is not serializable: %v", err),
				})
				continue
			}
			if err := tx.Put(id, payload); err != nil {
				results = append(results, BulkItemResult{
					OK:  false,
					ID:  id,
					Msg: fmt.Sprintf("engine write failed: %v", err),
				})
				continue
			}
			results = append(results, BulkItemResult{OK: true, ID: id})
		}
		return nil
	})
	if err != nil {
		return nil, asStoreError(op, err)
	}
	return results, nil
}
