// Package dump holds the flat document export of the wordnet: one record per
// synset with its word forms, glosses, examples and relation pointers.
package dump

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Field names a list attribute of a synset record.
type Field string

const (
	WordPT    Field = "word_pt"
	GlossPT   Field = "gloss_pt"
	ExamplePT Field = "example_pt"
)

// Fields lists the list attributes in report order.
var Fields = []Field{WordPT, GlossPT, ExamplePT}

// Valid reports whether f is a known list attribute.
func (f Field) Valid() bool {
	switch f {
	case WordPT, GlossPT, ExamplePT:
		return true
	}
	return false
}

// Pointer is one outgoing relation instance. An empty SourceWord or TargetWord
// means the whole synset is the endpoint.
type Pointer struct {
	TargetSynset string `json:"target_synset"`
	SourceWord   string `json:"source_word,omitempty"`
	TargetWord   string `json:"target_word,omitempty"`
}

// Synset is a dump record. A nil list means the attribute is absent from the
// record; an empty non-nil list was present but empty.
type Synset struct {
	DocID    string
	Words    []string
	Glosses  []string
	Examples []string
	// Pointers are keyed by relation name, e.g. "wn30_pt_antonymOf".
	Pointers map[string][]Pointer

	raw map[string]json.RawMessage
}

// Items returns the list stored under f.
func (s *Synset) Items(f Field) []string {
	switch f {
	case WordPT:
		return s.Words
	case GlossPT:
		return s.Glosses
	case ExamplePT:
		return s.Examples
	}
	return nil
}

// Has reports whether the record carries attribute f at all.
func (s *Synset) Has(f Field) bool { return s.Items(f) != nil }

func (s *Synset) setItems(f Field, items []string) {
	switch f {
	case WordPT:
		s.Words = items
	case GlossPT:
		s.Glosses = items
	case ExamplePT:
		s.Examples = items
	}
}

// Append adds v at the end of f, creating the attribute if absent.
func (s *Synset) Append(f Field, v string) error {
	if !f.Valid() {
		return fmt.Errorf("unknown field %q", f)
	}
	s.setItems(f, append(s.Items(f), v))
	return nil
}

// RemoveFirst deletes the first occurrence of v from f and reports whether it
// was found.
func (s *Synset) RemoveFirst(f Field, v string) bool {
	items := s.Items(f)
	for i, item := range items {
		if item == v {
			out := make([]string, 0, len(items)-1)
			out = append(out, items[:i]...)
			out = append(out, items[i+1:]...)
			s.setItems(f, out)
			return true
		}
	}
	return false
}

// Relations returns the relation names with pointers, sorted.
func (s *Synset) Relations() []string {
	names := make([]string, 0, len(s.Pointers))
	for name := range s.Pointers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnmarshalJSON reads a source document, keeping unknown keys for round trips.
func (s *Synset) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw, ok := fields["doc_id"]
	if !ok {
		return fmt.Errorf("synset record without doc_id")
	}
	if err := json.Unmarshal(raw, &s.DocID); err != nil {
		return fmt.Errorf("doc_id: %w", err)
	}
	for _, f := range Fields {
		raw, ok := fields[string(f)]
		if !ok || string(raw) == "null" {
			continue
		}
		items := []string{}
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("synset %s: %s: %w", s.DocID, f, err)
		}
		s.setItems(f, items)
	}

	s.Pointers = make(map[string][]Pointer)
	for key, raw := range fields {
		if key == "doc_id" || Field(key).Valid() {
			continue
		}
		if ptrs, ok := decodePointers(raw); ok {
			s.Pointers[key] = ptrs
		}
	}
	s.raw = fields
	return nil
}

// decodePointers accepts a value only if it is a list of objects that all
// name a target synset.
func decodePointers(raw json.RawMessage) ([]Pointer, bool) {
	var ptrs []Pointer
	if err := json.Unmarshal(raw, &ptrs); err != nil || len(ptrs) == 0 {
		return nil, false
	}
	for _, p := range ptrs {
		if p.TargetSynset == "" {
			return nil, false
		}
	}
	return ptrs, true
}

// MarshalJSON writes the record back with the current list attributes.
// Pointers are written as they were read.
func (s *Synset) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(s.raw)+4)
	for k, v := range s.raw {
		fields[k] = v
	}
	fields["doc_id"] = s.DocID
	for _, f := range Fields {
		if items := s.Items(f); items != nil {
			fields[string(f)] = items
		} else {
			delete(fields, string(f))
		}
	}
	for name, ptrs := range s.Pointers {
		if _, ok := s.raw[name]; !ok {
			fields[name] = ptrs
		}
	}
	return json.Marshal(fields)
}
