package compare

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/japaniel/ownsync/pkg/graph"
	"github.com/japaniel/ownsync/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingQuerier struct{ err error }

func (q failingQuerier) Query(context.Context, string, ...any) ([]graph.Row, error) {
	return nil, q.err
}

func auditFixture(t *testing.T) (*fixture, *dump.Collection) {
	f := newFixture(t)
	f.senses("S1", "casa", "predio")
	s2 := f.senses("S2", "frio")
	s3 := f.senses("S3", "quente")
	f.literal("S2", vocab.Gloss, "baixa temperatura")
	f.link(s2[0], antonym.Predicate, s3[0])

	docs := collection(t,
		&dump.Synset{DocID: "S1", Words: []string{"casa", "lar"}},
		&dump.Synset{DocID: "S2", Words: []string{"frio"}, Glosses: []string{"baixa temperatura"},
			Pointers: map[string][]dump.Pointer{
				antonym.Name: {{TargetSynset: "S3", SourceWord: "frio", TargetWord: "quente"}},
			}},
		&dump.Synset{DocID: "S3", Words: []string{"quente"}},
	)
	return f, docs
}

func TestOrchestratorRunJoinsAttributes(t *testing.T) {
	f, docs := auditFixture(t)
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	m := metrics.New()

	o := NewOrchestrator(NewComparator(f.store, vocab, docs, log), []Relation{antonym}).WithRunID("run-1")
	o.Metrics = m
	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.False(t, report.Compare)
	assert.Equal(t, []string{"S1"}, report.Diverged([]string{"S1", "S2", "S3"}))
	assert.Len(t, report.Synsets["S2"].Items, len(dump.Fields))

	assert.Equal(t, Counts{Dump: 1, RDF: 1, Both: 3}, report.Items[dump.WordPT])
	assert.Equal(t, Counts{Both: 1}, report.Items[dump.GlossPT])
	assert.Equal(t, Counts{}, report.Items[dump.ExamplePT])

	rel := report.Relations[antonym.Name]
	require.NotNil(t, rel)
	assert.True(t, rel.Compare)
	assert.Equal(t, []Pair{P("frio", "quente")}, rel.Pairs.Both)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SynsetsDiverged.WithLabelValues(string(dump.WordPT))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PairsCompared.WithLabelValues(antonym.Name, "both")))

	var divergent []logrus.Fields
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			assert.Equal(t, "run-1", e.Data["run_id"])
		}
		if e.Level == logrus.DebugLevel && e.Message == "synset comparison resulted false" {
			divergent = append(divergent, e.Data)
		}
	}
	require.Len(t, divergent, 1)
	assert.Equal(t, "S1", divergent[0]["doc_id"])
}

func TestOrchestratorReportJSON(t *testing.T) {
	f, docs := auditFixture(t)
	report, err := NewOrchestrator(NewComparator(f.store, vocab, docs, nil), []Relation{antonym}).Run(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded struct {
		Compare bool `json:"compare"`
		Synsets map[string]map[string]json.RawMessage
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Contains(t, decoded.Synsets, "S1")
	assert.JSONEq(t, `false`, string(decoded.Synsets["S1"]["compare"]))
	assert.JSONEq(t,
		`{"compare":false,"both":["casa"],"dump_only":["lar"],"rdf_only":["predio"]}`,
		string(decoded.Synsets["S1"]["word_pt"]))
}

func TestOrchestratorEmptyDumpAgrees(t *testing.T) {
	f := newFixture(t)
	o := NewOrchestrator(NewComparator(f.store, vocab, collection(t), nil), []Relation{antonym})

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Compare)
	assert.Empty(t, report.Synsets)
}

func TestOrchestratorRejectsInvalidInputUpfront(t *testing.T) {
	f := newFixture(t)
	o := NewOrchestrator(NewComparator(f.store, vocab, collection(t), nil), nil)

	_, err := o.CompareItem(context.Background(), dump.Field("lemma"))
	assert.True(t, errors.Is(err, ErrInvalidAttribute))

	_, err = o.CompareRelation(context.Background(), Relation{Name: "wn30_pt_antonymOf"})
	assert.True(t, errors.Is(err, ErrInvalidRelation))
}

func TestOrchestratorAbortsOnQueryError(t *testing.T) {
	boom := errors.New("store unavailable")
	docs := collection(t, &dump.Synset{DocID: "S1", Words: []string{"casa"}})
	o := NewOrchestrator(NewComparator(failingQuerier{err: boom}, vocab, docs, nil), []Relation{antonym})

	report, err := o.Run(context.Background())
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, boom))
}
