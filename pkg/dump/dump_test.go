package dump

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hitsArray = `[
  {"_index": "wn30", "_id": "S1", "_source": {
    "doc_id": "S1",
    "word_pt": ["casa", "lar"],
    "gloss_pt": ["edifício para habitação"],
    "rank": 3,
    "wn30_pt_antonymOf": [{"target_synset": "S2", "source_word": "casa", "target_word": "rua"}]
  }},
  {"_index": "wn30", "_id": "S2", "_source": {"doc_id": "S2", "word_pt": ["rua"]}}
]`

func TestReadHitsArray(t *testing.T) {
	c, err := Read(strings.NewReader(hitsArray))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	s1, ok := c.Get("S1")
	require.True(t, ok)
	assert.Equal(t, []string{"casa", "lar"}, s1.Words)
	assert.Equal(t, []string{"edifício para habitação"}, s1.Glosses)
	assert.Nil(t, s1.Examples)
	assert.False(t, s1.Has(ExamplePT))
	assert.Equal(t, []Pointer{{TargetSynset: "S2", SourceWord: "casa", TargetWord: "rua"}}, s1.Pointers["wn30_pt_antonymOf"])
	assert.Equal(t, []string{"wn30_pt_antonymOf"}, s1.Relations())

	ids := []string{}
	for _, s := range c.Synsets() {
		ids = append(ids, s.DocID)
	}
	assert.Equal(t, []string{"S1", "S2"}, ids)
}

func TestReadJSONLinesAndSearchResponse(t *testing.T) {
	lines := `{"doc_id": "A", "word_pt": ["a"]}
{"_id": "B", "_source": {"doc_id": "B"}}
{"hits": {"total": 1, "hits": [{"_id": "C", "_source": {"doc_id": "C", "example_pt": []}}]}}
`
	c, err := Read(strings.NewReader(lines))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	b, _ := c.Get("B")
	assert.False(t, b.Has(WordPT))
	cc, _ := c.Get("C")
	assert.True(t, cc.Has(ExamplePT))
	assert.Empty(t, cc.Examples)
}

func TestReadEmptyInput(t *testing.T) {
	c, err := Read(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestReadRejectsDuplicateDocID(t *testing.T) {
	_, err := Read(strings.NewReader(`[{"doc_id":"A"},{"doc_id":"A"}]`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateDocID))
}

func TestReadRejectsMissingDocID(t *testing.T) {
	_, err := Read(strings.NewReader(`[{"word_pt":["a"]}]`))
	require.Error(t, err)
}

func TestWritePreservesEnvelopeAndUnknownFields(t *testing.T) {
	c, err := Read(strings.NewReader(hitsArray))
	require.NoError(t, err)

	s1, _ := c.Get("S1")
	require.NoError(t, s1.Append(ExamplePT, "a casa é grande"))

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "wn30", out[0]["_index"])
	src := out[0]["_source"].(map[string]any)
	assert.Equal(t, float64(3), src["rank"])
	assert.Equal(t, []any{"a casa é grande"}, src["example_pt"])
	assert.Len(t, src["wn30_pt_antonymOf"], 1)

	again, err := Read(&buf)
	require.NoError(t, err)
	s1again, ok := again.Get("S1")
	require.True(t, ok)
	assert.Equal(t, []string{"a casa é grande"}, s1again.Examples)
	assert.Equal(t, s1.Pointers, s1again.Pointers)
}

func TestWriteKeepsLinesFormat(t *testing.T) {
	c, err := Read(strings.NewReader("{\"doc_id\":\"A\"}\n{\"doc_id\":\"B\"}\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))
	assert.Equal(t, "{\"doc_id\":\"A\"}\n{\"doc_id\":\"B\"}\n", buf.String())
}

func TestAppendAndRemoveFirst(t *testing.T) {
	s := &Synset{DocID: "S1", Words: []string{"casa", "lar", "casa"}}

	require.NoError(t, s.Append(WordPT, "novo"))
	assert.Equal(t, []string{"casa", "lar", "casa", "novo"}, s.Words)

	assert.True(t, s.RemoveFirst(WordPT, "casa"))
	assert.Equal(t, []string{"lar", "casa", "novo"}, s.Words)
	assert.False(t, s.RemoveFirst(WordPT, "predio"))

	require.NoError(t, s.Append(GlossPT, "uma glosa"))
	assert.Equal(t, []string{"uma glosa"}, s.Glosses)

	assert.Error(t, s.Append(Field("pos"), "n"))
}
