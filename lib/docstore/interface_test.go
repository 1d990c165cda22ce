package docstore

import (
	"encoding/json"
	"testing"
)

func TestSortKeyUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want SortKey
	}{
		{"BareField", `"name"`, SortKey{Field: "name"}},
		{"AscObject", `{"name":"asc"}`, SortKey{Field: "name"}},
		{"DescObject", `{"age":"desc"}`, SortKey{Field: "age", Descending: true}},
		{"DescUppercase", `{"age":"DESC"}`, SortKey{Field: "age", Descending: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got SortKey
			if err := json.Unmarshal([]byte(tc.raw), &got); err != nil {
				t.Fatalf("failed to unmarshal %s: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestSortKeyUnmarshalRejectsMultiPair(t *testing.T) {
	var key SortKey
	if err := json.Unmarshal([]byte(`{"a":"asc","b":"desc"}`), &key); err == nil {
		t.Error("expected error for multi-pair sort key object")
	}
}

func TestQueryWireForm(t *testing.T) {
	raw := `{
		"selector": {"city": "berlin", "age": {"$gte": 21}},
		"fields": ["name"],
		"sort": ["city", {"age": "desc"}],
		"limit": 10,
		"skip": 2,
		"use_index": "by-city"
	}`
	var query Query
	if err := json.Unmarshal([]byte(raw), &query); err != nil {
		t.Fatalf("failed to unmarshal query: %v", err)
	}
	if query.Selector["city"] != "berlin" {
		t.Errorf("unexpected selector: %v", query.Selector)
	}
	if len(query.Sort) != 2 || query.Sort[0] != (SortKey{Field: "city"}) ||
		query.Sort[1] != (SortKey{Field: "age", Descending: true}) {
		t.Errorf("unexpected sort keys: %+v", query.Sort)
	}
	if query.Limit != 10 || query.Skip != 2 || query.UseIndex != "by-city" {
		t.Errorf("unexpected paging: %+v", query)
	}

	// The compact form survives a round trip.
	data, err := json.Marshal(query.Sort)
	if err != nil {
		t.Fatalf("failed to marshal sort keys: %v", err)
	}
	if string(data) != `["city",{"age":"desc"}]` {
		t.Errorf("unexpected sort encoding: %s", data)
	}
}
