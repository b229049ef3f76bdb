package compare

import (
	"encoding/json"

	"github.com/japaniel/ownsync/pkg/dump"
)

// Counts are corpus-wide tallies of compared values.
type Counts struct {
	Dump int `json:"dump"`
	RDF  int `json:"rdf"`
	Both int `json:"both"`
}

func (c *Counts) add(both, dumpOnly, rdfOnly int) {
	c.Both += both
	c.Dump += dumpOnly
	c.RDF += rdfOnly
}

// ItemReport is the result of comparing one attribute across the corpus.
type ItemReport struct {
	Attribute dump.Field            `json:"attribute"`
	Compare   bool                  `json:"compare"`
	Docs      map[string]ItemResult `json:"docs"`
	Count     Counts                `json:"count"`
}

// SynsetReport joins the attribute verdicts of one synset.
type SynsetReport struct {
	Compare bool
	Items   map[dump.Field]ItemResult
}

// MarshalJSON flattens the attributes next to the joint verdict:
// {"compare": false, "word_pt": {...}, "gloss_pt": {...}, ...}.
func (r SynsetReport) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Items)+1)
	out["compare"] = r.Compare
	for f, res := range r.Items {
		out[string(f)] = res
	}
	return json.Marshal(out)
}

// PairLists aggregates the pairs of one relation across the corpus.
type PairLists struct {
	Dump []Pair `json:"dump"`
	RDF  []Pair `json:"rdf"`
	Both []Pair `json:"both"`
}

// RelationReport is the result of comparing one relation across the corpus.
type RelationReport struct {
	Relation  string    `json:"relation"`
	Predicate string    `json:"predicate"`
	Compare   bool      `json:"compare"`
	Count     Counts    `json:"count"`
	Pairs     PairLists `json:"pairs"`
}

// Report is the full audit of one run.
type Report struct {
	RunID     string                     `json:"run_id,omitempty"`
	Compare   bool                       `json:"compare"`
	Synsets   map[string]*SynsetReport   `json:"synsets"`
	Items     map[dump.Field]Counts      `json:"items"`
	Relations map[string]*RelationReport `json:"relations"`
}

// Diverged returns the doc_ids whose joined attribute verdict is false, in
// the given order.
func (r *Report) Diverged(order []string) []string {
	var out []string
	for _, id := range order {
		if s, ok := r.Synsets[id]; ok && !s.Compare {
			out = append(out, id)
		}
	}
	return out
}
