// Package compare reconciles the dump against the graph store and reports
// where they diverge.
package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/japaniel/ownsync/pkg/graph"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidAttribute is returned for a list attribute the comparator cannot query.
	ErrInvalidAttribute = errors.New("invalid attribute")
	// ErrInvalidRelation is returned for a relation without a name or predicate.
	ErrInvalidRelation = errors.New("invalid relation")
	// ErrUnknownSynset is returned when the requested doc_id is not in the dump.
	ErrUnknownSynset = errors.New("unknown synset")
)

// Relation maps a dump pointer list name to its graph predicate.
type Relation struct {
	Name      string `yaml:"name" json:"name"`
	Predicate string `yaml:"predicate" json:"predicate"`
}

// ItemResult is the verdict for one attribute of one synset.
type ItemResult struct {
	Compare  bool     `json:"compare"`
	Both     []string `json:"both"`
	DumpOnly []string `json:"dump_only"`
	RDFOnly  []string `json:"rdf_only"`
}

// PairResult is the verdict for one relation of one synset.
type PairResult struct {
	Compare  bool   `json:"compare"`
	Both     []Pair `json:"both"`
	DumpOnly []Pair `json:"dump_only"`
	RDFOnly  []Pair `json:"rdf_only"`
}

// Comparator compares single synsets. It only reads the collection.
type Comparator struct {
	q     graph.Querier
	vocab graph.Vocabulary
	docs  *dump.Collection
	log   *logrus.Logger
}

// NewComparator creates a Comparator over a graph and a dump.
func NewComparator(q graph.Querier, vocab graph.Vocabulary, docs *dump.Collection, log *logrus.Logger) *Comparator {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Comparator{q: q, vocab: vocab, docs: docs, log: log}
}

// CompareItem compares one list attribute of a synset. Dump values are
// stripped and deduplicated before matching; each graph value consumes at most
// one dump value.
func (c *Comparator) CompareItem(ctx context.Context, docID string, attr dump.Field) (ItemResult, error) {
	query, args, err := c.itemQuery(attr, docID)
	if err != nil {
		return ItemResult{}, err
	}
	s, ok := c.docs.Get(docID)
	if !ok {
		return ItemResult{}, fmt.Errorf("%w: %s", ErrUnknownSynset, docID)
	}

	dumpItems := uniqueStripped(s.Items(attr), attr == dump.WordPT)

	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return ItemResult{}, fmt.Errorf("query %s of synset %s: %w", attr, docID, err)
	}
	graphItems := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < 1 {
			return ItemResult{}, fmt.Errorf("query %s of synset %s: expected 1 binding, got %d", attr, docID, len(row))
		}
		graphItems = append(graphItems, strings.TrimSpace(row[0]))
	}

	both, dumpOnly, rdfOnly := reconcile(dumpItems, graphItems)
	return ItemResult{
		Compare:  len(dumpOnly) == 0 && len(rdfOnly) == 0,
		Both:     both,
		DumpOnly: dumpOnly,
		RDFOnly:  rdfOnly,
	}, nil
}

// ComparePointer compares the pairs of one relation leaving a synset.
// Dump pointers whose disambiguating word is not a word of its synset cannot
// be represented in the graph and are left out of the comparison.
func (c *Comparator) ComparePointer(ctx context.Context, docID string, rel Relation) (PairResult, error) {
	if rel.Name == "" || rel.Predicate == "" {
		return PairResult{}, fmt.Errorf("%w: %+v", ErrInvalidRelation, rel)
	}
	s, ok := c.docs.Get(docID)
	if !ok {
		return PairResult{}, fmt.Errorf("%w: %s", ErrUnknownSynset, docID)
	}

	dumpPairs := c.dumpPairs(s, rel)

	query, args := c.pointerQuery(docID, rel)
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return PairResult{}, fmt.Errorf("query %s of synset %s: %w", rel.Name, docID, err)
	}
	graphPairs := make([]Pair, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return PairResult{}, fmt.Errorf("query %s of synset %s: expected 6 bindings, got %d", rel.Name, docID, len(row))
		}
		src, okSrc := c.resolve(row[0], row[2])
		tgt, okTgt := c.resolve(row[3], row[5])
		if !okSrc || !okTgt {
			c.log.WithFields(logrus.Fields{
				"doc_id":   docID,
				"relation": rel.Name,
				"source":   row[0],
				"target":   row[3],
			}).Debug("graph pair endpoint is neither a word sense nor a synset, skipping")
			continue
		}
		graphPairs = append(graphPairs, Pair{Source: src, Target: tgt})
	}

	both, dumpOnly, rdfOnly := reconcile(dumpPairs, graphPairs)
	return PairResult{
		Compare:  len(dumpOnly) == 0 && len(rdfOnly) == 0,
		Both:     both,
		DumpOnly: dumpOnly,
		RDFOnly:  rdfOnly,
	}, nil
}

func (c *Comparator) dumpPairs(s *dump.Synset, rel Relation) []Pair {
	var out []Pair
	for _, p := range s.Pointers[rel.Name] {
		fields := logrus.Fields{
			"doc_id":        s.DocID,
			"relation":      rel.Name,
			"target_synset": p.TargetSynset,
		}
		target, ok := c.docs.Get(p.TargetSynset)
		if !ok {
			c.log.WithFields(fields).Warn("pointer target synset not in dump, skipping")
			continue
		}
		src, okSrc := endpointOf(s, p.SourceWord)
		tgt, okTgt := endpointOf(target, p.TargetWord)
		if !okSrc || !okTgt {
			fields["source_word"] = p.SourceWord
			fields["target_word"] = p.TargetWord
			c.log.WithFields(fields).Debug("pointer word not in synset, skipping")
			continue
		}
		out = append(out, Pair{Source: src, Target: tgt})
	}
	return out
}

// endpointOf resolves a pointer end: the word when named and present, the
// whole synset when no word is named.
func endpointOf(s *dump.Synset, word string) (Endpoint, bool) {
	if word == "" {
		return SynsetEndpoint(s.DocID), true
	}
	for _, w := range s.Words {
		if w == word {
			return WordEndpoint(strings.TrimSpace(word)), true
		}
	}
	return Endpoint{}, false
}

// resolve turns a graph node into an endpoint: its lemma when it is a word
// sense, its doc_id when it is a synset.
func (c *Comparator) resolve(node, lemma string) (Endpoint, bool) {
	if lemma != "" {
		return WordEndpoint(strings.TrimSpace(lemma)), true
	}
	if id, ok := c.vocab.DocID(node); ok {
		return SynsetEndpoint(id), true
	}
	return Endpoint{}, false
}

// uniqueStripped trims every value and drops repeats, keeping first-seen order.
// Blank values are dropped too when dropBlank is set; blank words get no word
// sense in the graph.
func uniqueStripped(items []string, dropBlank bool) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if seen[item] || (dropBlank && item == "") {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// reconcile matches graph values against dump values as multisets. Every
// graph value consumes one remaining equal dump value if there is one.
func reconcile[T comparable](dumpSide, graphSide []T) (both, dumpOnly, graphOnly []T) {
	remaining := make(map[T]int, len(dumpSide))
	for _, v := range dumpSide {
		remaining[v]++
	}
	both = make([]T, 0, len(graphSide))
	graphOnly = make([]T, 0)
	for _, v := range graphSide {
		if remaining[v] > 0 {
			remaining[v]--
			both = append(both, v)
			continue
		}
		graphOnly = append(graphOnly, v)
	}
	dumpOnly = make([]T, 0)
	for _, v := range dumpSide {
		if remaining[v] > 0 {
			remaining[v]--
			dumpOnly = append(dumpOnly, v)
		}
	}
	return both, dumpOnly, graphOnly
}
