package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known vocabularies.
const (
	RDFType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFSLabel  = "http://www.w3.org/2000/01/rdf-schema#label"
	XSDInteger = "http://www.w3.org/2001/XMLSchema#integer"
)

// Namespaces are the IRI prefixes of the wordnet schema and its instances.
type Namespaces struct {
	Schema    string `yaml:"schema"`
	Synset    string `yaml:"synset"`
	WordSense string `yaml:"wordsense"`
	Word      string `yaml:"word"`
}

// DefaultNamespaces returns the OpenWordnet-PT namespaces.
func DefaultNamespaces() Namespaces {
	return Namespaces{
		Schema:    "https://w3id.org/own-pt/wn30/schema/",
		Synset:    "https://w3id.org/own-pt/wn30-pt/instances/synset-",
		WordSense: "https://w3id.org/own-pt/wn30-pt/instances/wordsense-",
		Word:      "https://w3id.org/own-pt/wn30-pt/instances/word-",
	}
}

// Vocabulary resolves schema predicates and mints instance IRIs.
type Vocabulary struct {
	ns Namespaces

	ContainsWordSense string
	Word              string
	LexicalForm       string
	WordNumber        string
	Gloss             string
	Example           string
	WordSenseClass    string
	WordClass         string
}

// NewVocabulary builds a Vocabulary over the given namespaces.
func NewVocabulary(ns Namespaces) Vocabulary {
	return Vocabulary{
		ns:                ns,
		ContainsWordSense: ns.Schema + "containsWordSense",
		Word:              ns.Schema + "word",
		LexicalForm:       ns.Schema + "lexicalForm",
		WordNumber:        ns.Schema + "wordNumber",
		Gloss:             ns.Schema + "gloss",
		Example:           ns.Schema + "example",
		WordSenseClass:    ns.Schema + "WordSense",
		WordClass:         ns.Schema + "Word",
	}
}

// Namespaces returns the prefixes the vocabulary was built with.
func (v Vocabulary) Namespaces() Namespaces { return v.ns }

// Schema returns the schema IRI for a local name, e.g. "antonymOf".
func (v Vocabulary) Schema(local string) string { return v.ns.Schema + local }

// SynsetIRI returns the resource of the synset identified by docID.
func (v Vocabulary) SynsetIRI(docID string) string { return v.ns.Synset + escapeLocal(docID) }

// DocID recovers a synset doc_id from its IRI.
func (v Vocabulary) DocID(iri string) (string, bool) {
	if !strings.HasPrefix(iri, v.ns.Synset) {
		return "", false
	}
	return unescapeLocal(strings.TrimPrefix(iri, v.ns.Synset)), true
}

// WordSenseIRI returns the resource of the n-th (1-based) word sense of a synset.
func (v Vocabulary) WordSenseIRI(docID string, n int) string {
	return v.ns.WordSense + escapeLocal(docID) + "-" + strconv.Itoa(n)
}

// WordIRI returns the Word resource for a lexical form. Two synsets sharing a
// form share the Word node.
func (v Vocabulary) WordIRI(form string) string {
	return v.ns.Word + escapeLocal(strings.ReplaceAll(form, " ", "_"))
}

// escapeLocal percent-encodes the characters N-Triples forbids inside IRIREF.
func escapeLocal(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune(iriUnsafe, r) {
			fmt.Fprintf(&b, "%%%02X", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescapeLocal(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(n))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

const iriUnsafe = " <>\"{}|^`\\%\t\n\r"
