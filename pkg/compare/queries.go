package compare

import (
	"fmt"

	"github.com/japaniel/ownsync/pkg/dump"
)

// Pattern queries over the triple store. Each returns the bindings the
// comparator reads, in a fixed order.
const (
	// Distinct ?lemma of the words of a synset's word senses. Two senses
	// sharing one Word node yield the lemma once.
	wordQuery = `SELECT DISTINCT l.object FROM triples ws
		JOIN triples w ON w.subject = ws.object AND w.predicate = ?
		JOIN triples l ON l.subject = w.object AND l.predicate = ?
		WHERE ws.subject = ? AND ws.predicate = ?`

	// ?value of a literal-valued synset property (gloss, example).
	synsetValueQuery = `SELECT object FROM triples WHERE subject = ? AND predicate = ?`

	// ?sourceSense ?sourceWord ?sourceLemma ?targetSense ?targetWord ?targetLemma
	// for every relation instance leaving the synset or one of its word senses.
	// Word and lemma stay unbound when the endpoint is a synset.
	pointerQuery = `SELECT rel.subject, sw.object, swl.object, rel.object, tw.object, twl.object
		FROM triples rel
		LEFT JOIN triples sw ON sw.subject = rel.subject AND sw.predicate = ?
		LEFT JOIN triples swl ON swl.subject = sw.object AND swl.predicate = ?
		LEFT JOIN triples tw ON tw.subject = rel.object AND tw.predicate = ?
		LEFT JOIN triples twl ON twl.subject = tw.object AND twl.predicate = ?
		WHERE rel.predicate = ?
		AND (rel.subject = ? OR rel.subject IN (
			SELECT object FROM triples WHERE subject = ? AND predicate = ?))`
)

func (c *Comparator) itemQuery(attr dump.Field, docID string) (string, []any, error) {
	synset := c.vocab.SynsetIRI(docID)
	switch attr {
	case dump.WordPT:
		return wordQuery, []any{c.vocab.Word, c.vocab.LexicalForm, synset, c.vocab.ContainsWordSense}, nil
	case dump.GlossPT:
		return synsetValueQuery, []any{synset, c.vocab.Gloss}, nil
	case dump.ExamplePT:
		return synsetValueQuery, []any{synset, c.vocab.Example}, nil
	}
	return "", nil, fmt.Errorf("%w: %q", ErrInvalidAttribute, attr)
}

func (c *Comparator) pointerQuery(docID string, rel Relation) (string, []any) {
	synset := c.vocab.SynsetIRI(docID)
	return pointerQuery, []any{
		c.vocab.Word, c.vocab.LexicalForm,
		c.vocab.Word, c.vocab.LexicalForm,
		rel.Predicate,
		synset, synset, c.vocab.ContainsWordSense,
	}
}
