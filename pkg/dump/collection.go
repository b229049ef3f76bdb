package dump

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrDuplicateDocID is returned when two records share a doc_id.
var ErrDuplicateDocID = errors.New("duplicate doc_id")

// Collection is the keyed set of synset records loaded for one run.
//
// A Collection has a single owner: the reconciliation engine mutates it while
// patching, the comparator only reads it. It is not safe for concurrent use.
type Collection struct {
	order  []string
	docs   map[string]*entry
	format Format
}

type entry struct {
	synset *Synset
	env    Envelope
}

// NewCollection builds a collection from synsets in the given order.
func NewCollection(synsets ...*Synset) (*Collection, error) {
	c := &Collection{docs: make(map[string]*entry, len(synsets))}
	for _, s := range synsets {
		if err := c.add(s, Envelope{}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collection) add(s *Synset, env Envelope) error {
	if _, ok := c.docs[s.DocID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDocID, s.DocID)
	}
	c.docs[s.DocID] = &entry{synset: s, env: env}
	c.order = append(c.order, s.DocID)
	return nil
}

// Len returns the number of synsets.
func (c *Collection) Len() int { return len(c.order) }

// Get looks up a synset by doc_id.
func (c *Collection) Get(docID string) (*Synset, bool) {
	e, ok := c.docs[docID]
	if !ok {
		return nil, false
	}
	return e.synset, true
}

// Synsets returns the records in load order.
func (c *Collection) Synsets() []*Synset {
	out := make([]*Synset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.docs[id].synset)
	}
	return out
}

// Read decodes a dump export.
func Read(r io.Reader) (*Collection, error) {
	envs, format, err := ReadEnvelopes(r)
	if err != nil {
		return nil, err
	}
	c := &Collection{docs: make(map[string]*entry, len(envs)), format: format}
	for i, env := range envs {
		s := &Synset{}
		if err := json.Unmarshal(env.Source, s); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if err := c.add(s, env); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Load reads a dump export from a file or URL (see OpenSource).
func Load(ctx context.Context, location string) (*Collection, error) {
	rc, err := OpenSource(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Read(rc)
}

// Write encodes the collection in the format it was read with.
func (c *Collection) Write(w io.Writer) error {
	envs := make([]Envelope, 0, len(c.order))
	for _, id := range c.order {
		e := c.docs[id]
		src, err := json.Marshal(e.synset)
		if err != nil {
			return fmt.Errorf("synset %s: %w", id, err)
		}
		env := e.env
		env.Source = src
		envs = append(envs, env)
	}
	return WriteEnvelopes(w, envs, c.format)
}

// Save writes the collection to path.
func (c *Collection) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
