package docstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperio-mc/hyper/lib/engine"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func (s *docStore) QueryDocuments(alias string, query Query) ([]Document, error) {
	opCounter("query_documents").Inc()
	const op = "query_documents"

	region, serr := s.handle(op, alias)
	if serr != nil {
		return nil, serr
	}

	// Every query is a full scan in id order. UseIndex is accepted and
	// ignored; registered indexes are metadata only.
	matched := []Document{}
	var decodeErr error
	err := region.Iterate(engine.IterOptions{}, func(key string, value []byte) bool {
		doc, err := decodeDocument(key, value)
		if err != nil {
			decodeErr = err
			return false
		}
		if matchSelector(doc, query.Selector) {
			matched = append(matched, doc)
		}
		return true
	})
	if err != nil {
		return nil, newEngineError(op, err)
	}
	if decodeErr != nil {
		return nil, newEngineError(op, decodeErr)
	}

	if len(query.Sort) > 0 {
		sortDocuments(matched, query.Sort)
	}
	if query.Skip > 0 {
		if query.Skip >= len(matched) {
			matched = []Document{}
		} else {
			matched = matched[query.Skip:]
		}
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	if len(query.Fields) > 0 {
		for i, doc := range matched {
			matched[i] = projectDocument(doc, query.Fields)
		}
	}
	return matched, nil
}

// projectDocument reduces a document to the named fields. Fields the
// document does not carry are omitted rather than filled with null.
func projectDocument(doc Document, fields []string) Document {
	projected := make(Document, len(fields))
	for _, field := range fields {
		if value, ok := doc[field]; ok {
			projected[field] = value
		}
	}
	return projected
}

// --------------------------------------------------------------------------
// Selector Matching
// --------------------------------------------------------------------------

// matchSelector reports whether doc satisfies every condition of the
// selector. A nil or empty selector matches everything.
func matchSelector(doc Document, selector Document) bool {
	for field, condition := range selector {
		if !matchCondition(doc, field, condition) {
			return false
		}
	}
	return true
}

// matchCondition evaluates one field condition. A condition is either
// an operator object (every key starts with '$') or a literal value
// compared for equality.
func matchCondition(doc Document, field string, condition any) bool {
	value, exists := doc[field]

	if ops, ok := operatorObject(condition); ok {
		for op, operand := range ops {
			if !applyOperator(op, value, exists, operand) {
				return false
			}
		}
		return true
	}
	return matchEquality(value, exists, condition)
}

// operatorObject returns the condition as an operator map if every
// key carries the operator prefix. A plain object without the prefix
// is a literal value.
func operatorObject(condition any) (map[string]any, bool) {
	obj, ok := condition.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, false
	}
	for key := range obj {
		if !strings.HasPrefix(key, "$") {
			return nil, false
		}
	}
	return obj, true
}

// matchEquality implements literal and $eq matching. A null condition
// matches both an explicit null value and an absent field.
func matchEquality(value any, exists bool, condition any) bool {
	if condition == nil {
		return !exists || value == nil
	}
	return exists && equalValues(value, condition)
}

func applyOperator(op string, value any, exists bool, operand any) bool {
	switch op {
	case "$eq":
		return matchEquality(value, exists, operand)
	case "$ne":
		return !matchEquality(value, exists, operand)
	case "$gt":
		c, ok := compareValues(value, operand)
		return exists && ok && c > 0
	case "$gte":
		c, ok := compareValues(value, operand)
		return exists && ok && c >= 0
	case "$lt":
		c, ok := compareValues(value, operand)
		return exists && ok && c < 0
	case "$lte":
		c, ok := compareValues(value, operand)
		return exists && ok && c <= 0
	case "$in":
		candidates, ok := operand.([]any)
		if !ok || !exists {
			return false
		}
		for _, candidate := range candidates {
			if equalValues(value, candidate) {
				return true
			}
		}
		return false
	case "$nin":
		candidates, ok := operand.([]any)
		if !ok {
			return false
		}
		if !exists {
			return true
		}
		for _, candidate := range candidates {
			if equalValues(value, candidate) {
				return false
			}
		}
		return true
	case "$exists":
		want, ok := operand.(bool)
		return ok && exists == want
	default:
		// Unknown operators match nothing rather than everything.
		return false
	}
}

// --------------------------------------------------------------------------
// Value Comparison
// --------------------------------------------------------------------------

// asNumber normalizes the numeric types a Document can carry. JSON
// decoding only produces float64, the other cases cover documents
// built in process.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// equalValues compares two document values. Numbers compare by value
// across numeric types, everything else structurally.
func equalValues(a, b any) bool {
	if na, ok := asNumber(a); ok {
		nb, ok := asNumber(b)
		return ok && na == nb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, found := bv[k]
			if !found || !equalValues(v, bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareValues orders two same-typed values. The second result is
// false for mixed or unordered types, which makes range operators on
// them match nothing.
func compareValues(a, b any) (int, bool) {
	if na, ok := asNumber(a); ok {
		nb, ok := asNumber(b)
		if !ok {
			return 0, false
		}
		switch {
		case na < nb:
			return -1, true
		case na > nb:
			return 1, true
		default:
			return 0, true
		}
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case ba == bb:
			return 0, true
		case bb:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

// --------------------------------------------------------------------------
// Sorting
// --------------------------------------------------------------------------

// sortDocuments orders docs by the given sort keys. Strings collate
// language-aware, documents missing a field (or carrying null) order
// before documents that have it. The sort is stable so equal
// documents keep their id order.
func sortDocuments(docs []Document, keys []SortKey) {
	collator := collate.New(language.Und)
	sort.SliceStable(docs, func(i, j int) bool {
		return compareDocuments(docs[i], docs[j], keys, collator) < 0
	})
}

func compareDocuments(a, b Document, keys []SortKey, collator *collate.Collator) int {
	for _, key := range keys {
		av, aok := a[key.Field]
		bv, bok := b[key.Field]
		c := compareForSort(av, aok, bv, bok, collator)
		if key.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareForSort is a total order over document values: absent and
// null sort first, then numbers, strings and bools by their natural
// order. Mixed remaining types fall back to their rendered form so
// the order stays deterministic.
func compareForSort(a any, aok bool, b any, bok bool, collator *collate.Collator) int {
	aNull := !aok || a == nil
	bNull := !bok || b == nil
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -1
	case bNull:
		return 1
	}

	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return collator.CompareString(sa, sb)
		}
	}
	if c, ok := compareValues(a, b); ok {
		return c
	}
	return collator.CompareString(fmt.Sprint(a), fmt.Sprint(b))
}
