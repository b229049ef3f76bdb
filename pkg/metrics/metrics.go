// Package metrics defines Prometheus metrics for reconciliation runs.
//
// Runs are batch jobs, so nothing is scraped: the registry is written to a
// node_exporter textfile at the end of a run. A nil *Metrics is valid and
// records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the counters of one run.
type Metrics struct {
	Registry *prometheus.Registry

	ItemsCompared    *prometheus.CounterVec
	PairsCompared    *prometheus.CounterVec
	SynsetsDiverged  *prometheus.CounterVec
	Suggestions      *prometheus.CounterVec
	Patches          *prometheus.CounterVec
	TriplesRewritten *prometheus.CounterVec
}

// New creates the counters on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ItemsCompared: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ownsync_items_compared_total",
				Help: "Synset attribute values compared, by attribute and where they were found",
			},
			[]string{"attribute", "found"},
		),
		PairsCompared: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ownsync_pairs_compared_total",
				Help: "Relation pairs compared, by relation and where they were found",
			},
			[]string{"relation", "found"},
		),
		SynsetsDiverged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ownsync_synsets_diverged_total",
				Help: "Synsets whose dump and graph disagree, by attribute or relation",
			},
			[]string{"check"},
		),
		Suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ownsync_suggestions_total",
				Help: "Suggestions evaluated by the voting policy, by decision",
			},
			[]string{"decision"},
		),
		Patches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ownsync_patches_total",
				Help: "Accepted suggestions applied to the dump, by result",
			},
			[]string{"result"},
		),
		TriplesRewritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ownsync_triples_rewritten_total",
				Help: "Derived triples removed and written by graph regeneration",
			},
			[]string{"op"},
		),
	}
	m.Registry.MustRegister(
		m.ItemsCompared, m.PairsCompared, m.SynsetsDiverged,
		m.Suggestions, m.Patches, m.TriplesRewritten,
	)
	return m
}

// ObserveItems records one synset attribute comparison.
func (m *Metrics) ObserveItems(attribute string, both, dumpOnly, rdfOnly int) {
	if m == nil {
		return
	}
	m.observe(m.ItemsCompared, attribute, both, dumpOnly, rdfOnly)
}

// ObservePairs records one synset relation comparison.
func (m *Metrics) ObservePairs(relation string, both, dumpOnly, rdfOnly int) {
	if m == nil {
		return
	}
	m.observe(m.PairsCompared, relation, both, dumpOnly, rdfOnly)
}

func (m *Metrics) observe(v *prometheus.CounterVec, check string, both, dumpOnly, rdfOnly int) {
	v.WithLabelValues(check, "both").Add(float64(both))
	v.WithLabelValues(check, "dump").Add(float64(dumpOnly))
	v.WithLabelValues(check, "rdf").Add(float64(rdfOnly))
	if dumpOnly > 0 || rdfOnly > 0 {
		m.SynsetsDiverged.WithLabelValues(check).Inc()
	}
}

// ObserveSuggestion counts a policy decision.
func (m *Metrics) ObserveSuggestion(accepted bool) {
	if m == nil {
		return
	}
	decision := "rejected"
	if accepted {
		decision = "accepted"
	}
	m.Suggestions.WithLabelValues(decision).Inc()
}

// ObservePatch counts an applied or skipped patch.
func (m *Metrics) ObservePatch(applied bool) {
	if m == nil {
		return
	}
	result := "skipped"
	if applied {
		result = "applied"
	}
	m.Patches.WithLabelValues(result).Inc()
}

// ObserveRewrite counts triples removed and written by a regeneration.
func (m *Metrics) ObserveRewrite(removed, written int64) {
	if m == nil {
		return
	}
	m.TriplesRewritten.WithLabelValues("removed").Add(float64(removed))
	m.TriplesRewritten.WithLabelValues("written").Add(float64(written))
}

// WriteFile writes the registry in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
