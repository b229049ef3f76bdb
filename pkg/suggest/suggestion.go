// Package suggest decides which curator suggestions are accepted by vote and
// applies them to the dump.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/japaniel/ownsync/pkg/dump"
)

// StatusNew is the only status a suggestion can be accepted in.
const StatusNew = "new"

// ID identifies a suggestion. Exports carry it either as a JSON string or as
// a number; both decode to the same ID.
type ID string

// UnmarshalJSON accepts "17" and 17 alike.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("suggestion id must be a string or a number: %s", data)
	}
	*id = ID(n.String())
	return nil
}

// Suggestion is a curator's proposed edit to one synset.
type Suggestion struct {
	ID     ID     `json:"id"`
	DocID  string `json:"doc_id"`
	Action string `json:"action"`
	Params string `json:"params"`
	Status string `json:"status"`
	User   string `json:"user"`
}

// Kind classifies the action.
func (s Suggestion) Kind() ActionKind { return ParseAction(s.Action) }

// Vote is one user's signed weight on a suggestion.
type Vote struct {
	SuggestionID ID     `json:"suggestion_id"`
	User         string `json:"user"`
	Value        int    `json:"value"`
}

// ReadSuggestions decodes a suggestion export. Records may be wrapped in
// search hits like the dump.
func ReadSuggestions(r io.Reader) ([]Suggestion, error) {
	return readSources[Suggestion](r, "suggestion")
}

// ReadVotes decodes a vote export.
func ReadVotes(r io.Reader) ([]Vote, error) {
	return readSources[Vote](r, "vote")
}

// LoadSuggestions reads a suggestion export from a file or URL.
func LoadSuggestions(ctx context.Context, location string) ([]Suggestion, error) {
	return load(ctx, location, ReadSuggestions)
}

// LoadVotes reads a vote export from a file or URL.
func LoadVotes(ctx context.Context, location string) ([]Vote, error) {
	return load(ctx, location, ReadVotes)
}

func readSources[T any](r io.Reader, what string) ([]T, error) {
	envs, _, err := dump.ReadEnvelopes(r)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(envs))
	for i, env := range envs {
		var v T
		dec := json.NewDecoder(bytes.NewReader(env.Source))
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s %d: %w", what, i+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func load[T any](ctx context.Context, location string, read func(io.Reader) ([]T, error)) ([]T, error) {
	rc, err := dump.OpenSource(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	out, err := read(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return out, nil
}

func (s Suggestion) String() string {
	return fmt.Sprintf("%s %s %q on %s", s.ID, s.Action, strings.TrimSpace(s.Params), s.DocID)
}
