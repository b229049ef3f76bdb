package compare

import "encoding/json"

// Endpoint is one end of a relation pair: a word form, or a whole synset when
// the relation is not anchored on a particular word.
type Endpoint struct {
	Word   string `json:"word,omitempty"`
	Synset string `json:"synset,omitempty"`
}

// WordEndpoint returns an endpoint anchored on a word form.
func WordEndpoint(word string) Endpoint { return Endpoint{Word: word} }

// SynsetEndpoint returns an endpoint standing for a whole synset.
func SynsetEndpoint(docID string) Endpoint { return Endpoint{Synset: docID} }

// IsSynset reports whether the endpoint is a whole synset.
func (e Endpoint) IsSynset() bool { return e.Synset != "" }

func (e Endpoint) String() string {
	if e.IsSynset() {
		return "synset:" + e.Synset
	}
	return e.Word
}

// Pair is a (source, target) relation instance.
type Pair struct {
	Source Endpoint
	Target Endpoint
}

// P is shorthand for a word-to-word pair.
func P(source, target string) Pair {
	return Pair{Source: WordEndpoint(source), Target: WordEndpoint(target)}
}

func (p Pair) String() string { return "(" + p.Source.String() + ", " + p.Target.String() + ")" }

// MarshalJSON writes the pair as a two-element array.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Source.String(), p.Target.String()})
}
