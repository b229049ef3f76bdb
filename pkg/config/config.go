// Package config loads the reconciler's settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/japaniel/ownsync/pkg/compare"
	"github.com/japaniel/ownsync/pkg/graph"
	"github.com/japaniel/ownsync/pkg/suggest"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvDatabase = "OWNSYNC_DB"
	EnvLogLevel = "OWNSYNC_LOG_LEVEL"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is passed explicitly to every component that needs it.
type Config struct {
	Database    string                        `yaml:"database"`
	Language    string                        `yaml:"language"`
	LogLevel    string                        `yaml:"log_level"`
	Namespaces  graph.Namespaces              `yaml:"namespaces"`
	Relations   map[string][]compare.Relation `yaml:"relations"`
	Policy      suggest.Policy                `yaml:"policy"`
	MetricsFile string                        `yaml:"metrics_file"`
	BatchSize   int                           `yaml:"batch_size"`
}

var morphosemantic = []string{
	"property", "result", "state", "undergoer", "uses", "vehicle", "event",
	"instrument", "location", "material", "agent", "bodyPart", "byMeansOf",
}

// DefaultRelations returns the relation groups known to the OpenWordnet-PT
// schema, keyed by group name.
func DefaultRelations(ns graph.Namespaces) map[string][]compare.Relation {
	rel := func(local string) compare.Relation {
		return compare.Relation{Name: "wn30_pt_" + local, Predicate: ns.Schema + local}
	}
	groups := map[string][]compare.Relation{
		"antonym": {rel("antonymOf")},
	}
	for _, local := range morphosemantic {
		groups["morphosemantic"] = append(groups["morphosemantic"], rel(local))
	}
	return groups
}

// Default returns a complete configuration.
func Default() Config {
	ns := graph.DefaultNamespaces()
	return Config{
		Database:   "ownsync.db",
		Language:   "pt",
		LogLevel:   "info",
		Namespaces: ns,
		Relations:  DefaultRelations(ns),
		Policy:     suggest.DefaultPolicy(),
		BatchSize:  500,
	}
}

// Load reads path over the defaults, then applies environment overrides. An
// empty path yields the defaults. Relation groups default to the schema
// namespace in effect after the file is read.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Relations = nil
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if cfg.Relations == nil {
		cfg.Relations = DefaultRelations(cfg.Namespaces)
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate reports the first problem found.
func (c Config) Validate() error {
	switch {
	case c.Database == "":
		return fmt.Errorf("%w: database is empty", ErrInvalid)
	case c.Namespaces.Schema == "" || c.Namespaces.Synset == "" ||
		c.Namespaces.WordSense == "" || c.Namespaces.Word == "":
		return fmt.Errorf("%w: every namespace must be set", ErrInvalid)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalid, c.BatchSize)
	}
	for group, rels := range c.Relations {
		for i, r := range rels {
			if r.Name == "" || r.Predicate == "" {
				return fmt.Errorf("%w: relation %d of group %q needs a name and a predicate", ErrInvalid, i+1, group)
			}
		}
	}
	return nil
}

// Vocabulary builds the IRI vocabulary of the configured namespaces.
func (c Config) Vocabulary() graph.Vocabulary { return graph.NewVocabulary(c.Namespaces) }

// SelectRelations resolves a comma-separated list of group or relation names.
// "all" and the empty string select every group.
func (c Config) SelectRelations(selection string) ([]compare.Relation, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" || selection == "all" {
		return c.allRelations(), nil
	}
	var out []compare.Relation
	seen := make(map[string]bool)
	for _, name := range strings.Split(selection, ",") {
		name = strings.TrimSpace(name)
		rels, ok := c.Relations[name]
		if !ok {
			rel, found := c.findRelation(name)
			if !found {
				return nil, fmt.Errorf("%w: %s", compare.ErrInvalidRelation, strconv.Quote(name))
			}
			rels = []compare.Relation{rel}
		}
		for _, r := range rels {
			if !seen[r.Name] {
				seen[r.Name] = true
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (c Config) groups() []string {
	names := make([]string, 0, len(c.Relations))
	for g := range c.Relations {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

func (c Config) allRelations() []compare.Relation {
	var out []compare.Relation
	seen := make(map[string]bool)
	for _, g := range c.groups() {
		for _, r := range c.Relations[g] {
			if !seen[r.Name] {
				seen[r.Name] = true
				out = append(out, r)
			}
		}
	}
	return out
}

func (c Config) findRelation(name string) (compare.Relation, bool) {
	for _, g := range c.groups() {
		for _, r := range c.Relations[g] {
			if r.Name == name {
				return r, true
			}
		}
	}
	return compare.Relation{}, false
}
