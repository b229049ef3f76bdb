package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveItems("word_pt", 1, 1, 1)
	m.ObservePairs("wn30_pt_antonymOf", 1, 0, 0)
	m.ObserveSuggestion(true)
	m.ObservePatch(false)
	m.ObserveRewrite(1, 2)
	assert.NoError(t, m.WriteFile("ignored"))
}

func TestObserveItemsCountsDivergence(t *testing.T) {
	m := New()
	m.ObserveItems("word_pt", 1, 1, 1)
	m.ObserveItems("word_pt", 2, 0, 0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ItemsCompared.WithLabelValues("word_pt", "both")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsCompared.WithLabelValues("word_pt", "rdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SynsetsDiverged.WithLabelValues("word_pt")))
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.ObserveSuggestion(true)
	m.ObserveSuggestion(false)
	m.ObservePatch(true)
	m.ObserveRewrite(10, 12)

	path := filepath.Join(t.TempDir(), "ownsync.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `ownsync_suggestions_total{decision="accepted"} 1`), text)
	assert.True(t, strings.Contains(text, `ownsync_triples_rewritten_total{op="written"} 12`), text)
}
