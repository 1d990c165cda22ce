package docstore

import (
	"github.com/hyperio-mc/hyper/lib/engine"
)

// keySuccessor returns the smallest key strictly greater than key.
// Used to express an inclusive upper bound over the engine's
// exclusive iteration end.
func keySuccessor(key string) string {
	return key + "\x00"
}

func (s *docStore) ListDocuments(alias string, opts ListOptions) ([]Document, error) {
	opCounter("list_documents").Inc()
	const op = "list_documents"

	region, serr := s.handle(op, alias)
	if serr != nil {
		return nil, serr
	}

	iterOpts := engine.IterOptions{
		Start:   opts.StartKey,
		Reverse: opts.Descending,
	}
	if opts.EndKey != "" {
		iterOpts.End = keySuccessor(opts.EndKey)
	}

	// An explicit key set intersects with the range bounds instead of
	// replacing them.
	var keySet map[string]bool
	if len(opts.Keys) > 0 {
		keySet = make(map[string]bool, len(opts.Keys))
		for _, key := range opts.Keys {
			keySet[key] = true
		}
	}

	docs := []Document{}
	var decodeErr error
	err := region.Iterate(iterOpts, func(key string, value []byte) bool {
		if keySet != nil && !keySet[key] {
			return true
		}
		doc, err := decodeDocument(key, value)
		if err != nil {
			decodeErr = err
			return false
		}
		docs = append(docs, doc)
		return opts.Limit <= 0 || len(docs) < opts.Limit
	})
	if err != nil {
		return nil, newEngineError(op, err)
	}
	if decodeErr != nil {
		return nil, newEngineError(op, decodeErr)
	}
	return docs, nil
}
