package docstore

import (
	"encoding/json"
	"time"
)

func (s *docStore) IndexDocuments(alias, name string, fields []string, partialFilter Document) error {
	opCounter("index_documents").Inc()
	const op = "index_documents"

	if name == "" {
		return newBadRequest("index name must not be empty")
	}

	// The namespace must exist, the field list is taken as given.
	if _, serr := s.resolve(op, alias); serr != nil {
		return serr
	}

	rec := indexRecord{
		Namespace:     alias,
		Name:          name,
		Fields:        fields,
		PartialFilter: partialFilter,
		CreatedAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return newEngineError(op, err)
	}

	// Registering under an existing name replaces the old definition.
	if err := s.meta.Put(idxKey(name), payload); err != nil {
		return newEngineError(op, err)
	}
	Logger.Infof("registered index '%s' on namespace '%s'", name, alias)
	return nil
}
