package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/japaniel/ownsync/pkg/compare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ownsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ownsync.db", cfg.Database)
	assert.Equal(t, "pt", cfg.Language)
	assert.Equal(t, 1, cfg.Policy.SeniorThreshold)
	assert.Equal(t, 2, cfg.Policy.JuniorThreshold)
	assert.Equal(t, []compare.Relation{{
		Name:      "wn30_pt_antonymOf",
		Predicate: "https://w3id.org/own-pt/wn30/schema/antonymOf",
	}}, cfg.Relations["antonym"])
	assert.Len(t, cfg.Relations["morphosemantic"], 13)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database: /var/lib/ownsync/graph.db
namespaces:
  schema: http://example.org/schema/
policy:
  senior_users: [ana, rui]
  junior_threshold: 0
batch_size: 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/ownsync/graph.db", cfg.Database)
	assert.Equal(t, "http://example.org/schema/", cfg.Namespaces.Schema)
	assert.Equal(t, "https://w3id.org/own-pt/wn30-pt/instances/synset-", cfg.Namespaces.Synset)
	assert.Equal(t, []string{"ana", "rui"}, cfg.Policy.SeniorUsers)
	assert.Equal(t, 1, cfg.Policy.SeniorThreshold)
	assert.Equal(t, 0, cfg.Policy.JuniorThreshold)
	assert.Equal(t, 50, cfg.BatchSize)
	// Default relations follow the configured schema.
	assert.Equal(t, "http://example.org/schema/antonymOf", cfg.Relations["antonym"][0].Predicate)
	assert.Equal(t, "http://example.org/schema/antonymOf", cfg.Vocabulary().Schema("antonymOf"))
}

func TestLoadExplicitRelations(t *testing.T) {
	path := writeConfig(t, `
relations:
  hypernymy:
    - name: wn30_pt_hypernymOf
      predicate: https://w3id.org/own-pt/wn30/schema/hypernymOf
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Relations, 1)
	assert.Equal(t, "wn30_pt_hypernymOf", cfg.Relations["hypernymy"][0].Name)
}

func TestLoadEnvironmentWins(t *testing.T) {
	t.Setenv(EnvDatabase, "env.db")
	t.Setenv(EnvLogLevel, "debug")
	cfg, err := Load(writeConfig(t, "database: file.db\nlog_level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "batch_size: [1, 2]\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "batch_size: 0\n"))
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = Load(writeConfig(t, "relations:\n  broken:\n    - name: x\n"))
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestSelectRelations(t *testing.T) {
	cfg := Default()

	all, err := cfg.SelectRelations("")
	require.NoError(t, err)
	assert.Len(t, all, 14)

	rels, err := cfg.SelectRelations("antonym, wn30_pt_agent,antonym")
	require.NoError(t, err)
	assert.Equal(t, []string{"wn30_pt_antonymOf", "wn30_pt_agent"}, names(rels))

	_, err = cfg.SelectRelations("hyponym")
	assert.True(t, errors.Is(err, compare.ErrInvalidRelation))
}

func names(rels []compare.Relation) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		out = append(out, r.Name)
	}
	return out
}
