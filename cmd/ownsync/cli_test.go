package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/japaniel/ownsync/pkg/graph"
	"github.com/japaniel/ownsync/pkg/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&app{stdout: &stdout, stderr: &stderr})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// writeGraph writes S1 with word senses for "casa" and "predio".
func writeGraph(t *testing.T, dir string) string {
	t.Helper()
	v := graph.NewVocabulary(graph.DefaultNamespaces())
	var triples []graph.Triple
	for i, lemma := range []string{"casa", "predio"} {
		sense := v.WordSenseIRI("S1", i+1)
		triples = append(triples,
			graph.Triple{Subject: v.SynsetIRI("S1"), Predicate: v.ContainsWordSense, Object: graph.NewIRI(sense)},
			graph.Triple{Subject: sense, Predicate: v.Word, Object: graph.NewIRI(v.WordIRI(lemma))},
			graph.Triple{Subject: v.WordIRI(lemma), Predicate: v.LexicalForm, Object: graph.NewLiteral(lemma, "pt")},
		)
	}
	path := filepath.Join(dir, "graph.nt")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := rdf.NewWriter(f)
	for _, tr := range triples {
		require.NoError(t, w.Write(tr))
	}
	require.NoError(t, w.Flush())
	return path
}

func TestCLI_CompareThenUpdate(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "ownsync.db")
	metricsPath := filepath.Join(tmp, "ownsync.prom")
	graphPath := writeGraph(t, tmp)
	dumpPath := writeFile(t, tmp, "wn.json",
		`[{"_index":"wn","_id":"S1","_source":{"doc_id":"S1","word_pt":["casa"],"rank":7}}]`)
	suggestionsPath := writeFile(t, tmp, "suggestions.json",
		`{"_id":"x1","_source":{"id":1,"doc_id":"S1","action":"add-word-pt","params":"lar","status":"new","user":"rui"}}`+"\n")
	votesPath := writeFile(t, tmp, "votes.json",
		`[{"suggestion_id":1,"user":"a","value":2},{"suggestion_id":1,"user":"b","value":1}]`)

	out, _, err := run(t, "init", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Database initialized")

	_, stderr, err := run(t, "import", graphPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "NEW")

	reportPath := filepath.Join(tmp, "report.json")
	_, stderr, err = run(t, "compare", "--db", dbPath, "--dump", dumpPath,
		"--relations", "antonym", "--report", reportPath, "--fail-on-diff", "--metrics-file", metricsPath)
	assert.True(t, errors.Is(err, errDiverged))
	assert.Contains(t, stderr, "word_pt")

	var report struct {
		RunID   string `json:"run_id"`
		Compare bool   `json:"compare"`
		Synsets map[string]struct {
			WordPT struct {
				RDFOnly []string `json:"rdf_only"`
			} `json:"word_pt"`
		} `json:"synsets"`
	}
	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Compare)
	assert.Equal(t, []string{"predio"}, report.Synsets["S1"].WordPT.RDFOnly)

	// The metrics file is written after a successful run only.
	_, err = os.Stat(metricsPath)
	assert.True(t, os.IsNotExist(err))

	patchedPath := filepath.Join(tmp, "wn-patched.json")
	out, _, err = run(t, "update", "--db", dbPath, "--dump", dumpPath,
		"--suggestions", suggestionsPath, "--votes", votesPath, "--out", patchedPath, "--metrics-file", metricsPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"accepted": 1`)

	patched, err := dump.Load(context.Background(), patchedPath)
	require.NoError(t, err)
	s1, ok := patched.Get("S1")
	require.True(t, ok)
	assert.Equal(t, []string{"casa", "lar"}, s1.Words)
	body, err := os.ReadFile(patchedPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"_index":"wn"`)
	assert.Contains(t, string(body), `"rank":7`)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "ownsync_patches_total")

	_, _, err = run(t, "compare", "--db", dbPath, "--dump", patchedPath, "--report", filepath.Join(tmp, "after.json"), "--fail-on-diff")
	require.NoError(t, err)

	out, _, err = run(t, "export", "-", "--db", dbPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Two word senses, seven derived triples each.
	assert.Len(t, lines, 14)

	ntPath := filepath.Join(tmp, "export.nt")
	_, _, err = run(t, "export", ntPath, "--db", dbPath)
	require.NoError(t, err)
	exported, err := os.ReadFile(ntPath)
	require.NoError(t, err)
	assert.Equal(t, out, string(exported))
}

func TestCLI_ReadCommandsNeedExistingDatabase(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "typo.db")
	dumpPath := writeFile(t, tmp, "wn.json", `{"doc_id":"S1","word_pt":["casa"]}`+"\n")

	_, _, err := run(t, "compare", "--db", dbPath, "--dump", dumpPath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = run(t, "export", "-", "--db", dbPath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err), "read commands must not create the database")
}

func TestCLI_DryRunKeepsGraph(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "ownsync.db")
	dumpPath := writeFile(t, tmp, "wn.json", `{"doc_id":"S1","word_pt":["casa"]}`+"\n")

	_, _, err := run(t, "update", "--db", dbPath, "--dump", dumpPath, "--dry-run")
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_RejectsBadInput(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "ownsync.db")
	dumpPath := writeFile(t, tmp, "wn.json", `[]`)

	_, _, err := run(t, "compare", "--db", dbPath, "--dump", dumpPath, "--relations", "hyponymy")
	assert.Error(t, err)

	_, _, err = run(t, "compare", "--db", dbPath)
	assert.Error(t, err)

	_, _, err = run(t, "init", "--db", dbPath, "--log-format", "xml")
	assert.Error(t, err)

	_, _, err = run(t, "import", writeFile(t, tmp, "bad.nt", "<http://a> <http://b> .\n"), "--db", dbPath)
	var perr *rdf.ParseError
	assert.True(t, errors.As(err, &perr))
}
