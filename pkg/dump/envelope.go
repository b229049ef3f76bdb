package dump

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Format is the outer shape of an export file.
type Format int

const (
	// FormatArray is a single JSON array of records.
	FormatArray Format = iota
	// FormatLines is one JSON record per line.
	FormatLines
)

// Envelope is one exported record. Search exports wrap the document under
// "_source" next to index metadata; bare exports are the document itself.
type Envelope struct {
	Source  json.RawMessage
	meta    map[string]json.RawMessage
	wrapped bool
}

// UnmarshalJSON splits a record into its metadata and source document.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	src, ok := fields["_source"]
	if !ok {
		e.Source = append(json.RawMessage(nil), data...)
		e.meta = nil
		e.wrapped = false
		return nil
	}
	delete(fields, "_source")
	e.Source = src
	e.meta = fields
	e.wrapped = true
	return nil
}

// MarshalJSON re-wraps the source with the metadata it was read with.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if !e.wrapped {
		return e.Source, nil
	}
	fields := make(map[string]json.RawMessage, len(e.meta)+1)
	for k, v := range e.meta {
		fields[k] = v
	}
	fields["_source"] = e.Source
	return json.Marshal(fields)
}

// ReadEnvelopes decodes an export: a JSON array, a search response
// ({"hits": {"hits": [...]}}), or JSON Lines.
func ReadEnvelopes(r io.Reader) ([]Envelope, Format, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, FormatLines, nil
	}
	if err != nil {
		return nil, 0, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var out []Envelope
		if err := dec.Decode(&out); err != nil {
			return nil, 0, fmt.Errorf("failed to parse export array: %w", err)
		}
		return out, FormatArray, nil
	}

	var out []Envelope
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, fmt.Errorf("failed to parse export record %d: %w", len(out)+1, err)
		}
		if hits, ok := searchHits(raw); ok {
			out = append(out, hits...)
			continue
		}
		var e Envelope
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, 0, fmt.Errorf("failed to parse export record %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, FormatLines, nil
}

// searchHits unwraps a search response wrapper { "hits": { "hits": [...] } }.
func searchHits(raw json.RawMessage) ([]Envelope, bool) {
	var resp struct {
		Hits *struct {
			Hits []Envelope `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Hits == nil {
		return nil, false
	}
	return resp.Hits.Hits, true
}

// WriteEnvelopes encodes records in the given format.
func WriteEnvelopes(w io.Writer, envs []Envelope, format Format) error {
	if format == FormatLines {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, e := range envs {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}
	if envs == nil {
		envs = []Envelope{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(envs)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
