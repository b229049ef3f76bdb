// Package update rebuilds the graph's lexical subgraph from the dump.
package update

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/japaniel/ownsync/pkg/graph"
	"github.com/japaniel/ownsync/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const (
	deleteByPredicate = `DELETE FROM triples WHERE predicate = ?`
	deleteByType      = `DELETE FROM triples WHERE predicate = ? AND object = ?`
	// Labels are only dropped from word senses: typed ones, and any left in
	// the word-sense namespace by an interrupted run.
	deleteSenseLabels = `DELETE FROM triples WHERE predicate = ? AND (
		subject IN (SELECT subject FROM triples WHERE predicate = ? AND object = ?)
		OR substr(subject, 1, length(?)) = ?)`
)

// Stats summarizes one regeneration.
type Stats struct {
	Synsets int   `json:"synsets"`
	Removed int64 `json:"removed"`
	Written int   `json:"written"`
}

// Updater owns the derived subgraph: word senses, words, glosses and
// examples. Relations and anything else in the store are left alone.
type Updater struct {
	store graph.Store
	vocab graph.Vocabulary
	lang  string
	log   *logrus.Logger

	Metrics *metrics.Metrics
}

// New creates an Updater writing literals tagged with lang.
func New(store graph.Store, vocab graph.Vocabulary, lang string, log *logrus.Logger) *Updater {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Updater{store: store, vocab: vocab, lang: lang, log: log}
}

// Regenerate clears the derived subgraph and re-derives it from every synset
// of the collection. The clear always completes before anything is written.
func (u *Updater) Regenerate(ctx context.Context, col *dump.Collection) (Stats, error) {
	var stats Stats
	removed, err := u.Clear(ctx)
	if err != nil {
		return stats, err
	}
	stats.Removed = removed

	seen := make(map[graph.Triple]struct{})
	var triples []graph.Triple
	for _, s := range col.Synsets() {
		for _, t := range u.Derive(s) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			triples = append(triples, t)
		}
		stats.Synsets++
	}
	if err := u.store.Insert(ctx, triples); err != nil {
		return stats, fmt.Errorf("insert derived triples: %w", err)
	}
	stats.Written = len(triples)
	u.Metrics.ObserveRewrite(stats.Removed, int64(stats.Written))

	u.log.WithFields(logrus.Fields{
		"synsets": stats.Synsets,
		"removed": stats.Removed,
		"written": stats.Written,
	}).Info("graph regenerated")
	return stats, nil
}

// Clear removes every triple of the derived predicates graph-wide and returns
// how many were deleted.
func (u *Updater) Clear(ctx context.Context) (int64, error) {
	v := u.vocab
	senseNS := v.Namespaces().WordSense
	steps := []struct {
		what string
		stmt string
		args []any
	}{
		{"containsWordSense", deleteByPredicate, []any{v.ContainsWordSense}},
		{"word sense labels", deleteSenseLabels, []any{graph.RDFSLabel, graph.RDFType, v.WordSenseClass, senseNS, senseNS}},
		{"word sense types", deleteByType, []any{graph.RDFType, v.WordSenseClass}},
		{"wordNumber", deleteByPredicate, []any{v.WordNumber}},
		{"word", deleteByPredicate, []any{v.Word}},
		{"word types", deleteByType, []any{graph.RDFType, v.WordClass}},
		{"lexicalForm", deleteByPredicate, []any{v.LexicalForm}},
		{"gloss", deleteByPredicate, []any{v.Gloss}},
		{"example", deleteByPredicate, []any{v.Example}},
	}

	var total int64
	for _, step := range steps {
		n, err := u.store.Exec(ctx, step.stmt, step.args...)
		if err != nil {
			return total, fmt.Errorf("clear %s: %w", step.what, err)
		}
		u.log.WithFields(logrus.Fields{"step": step.what, "removed": n}).Debug("cleared derived triples")
		total += n
	}
	return total, nil
}

// Derive returns the triples a synset contributes to the derived subgraph.
// Word senses are numbered from 1 in word list order; blank word forms are
// skipped without leaving a gap.
func (u *Updater) Derive(s *dump.Synset) []graph.Triple {
	v := u.vocab
	synset := v.SynsetIRI(s.DocID)
	var out []graph.Triple
	add := func(subject, predicate string, object graph.Term) {
		out = append(out, graph.Triple{Subject: subject, Predicate: predicate, Object: object})
	}

	n := 0
	for _, word := range s.Words {
		if strings.TrimSpace(word) == "" {
			u.log.WithField("doc_id", s.DocID).Warn("blank word form, skipping")
			continue
		}
		n++
		sense := v.WordSenseIRI(s.DocID, n)
		w := v.WordIRI(word)

		add(synset, v.ContainsWordSense, graph.NewIRI(sense))

		add(sense, graph.RDFType, graph.NewIRI(v.WordSenseClass))
		add(sense, v.WordNumber, graph.NewTypedLiteral(strconv.Itoa(n), graph.XSDInteger))
		add(sense, graph.RDFSLabel, graph.NewLiteral(word, u.lang))

		add(sense, v.Word, graph.NewIRI(w))
		add(w, graph.RDFType, graph.NewIRI(v.WordClass))
		add(w, v.LexicalForm, graph.NewLiteral(word, u.lang))
	}
	for _, gloss := range s.Glosses {
		add(synset, v.Gloss, graph.NewLiteral(gloss, u.lang))
	}
	for _, example := range s.Examples {
		add(synset, v.Example, graph.NewLiteral(example, u.lang))
	}
	return out
}
