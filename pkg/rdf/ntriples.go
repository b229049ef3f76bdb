// Package rdf reads and writes the graph as N-Triples.
package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/japaniel/ownsync/pkg/graph"
)

// XSDString is the implicit datatype of plain literals.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

// Reader decodes N-Triples one statement at a time.
type Reader struct {
	s    *bufio.Scanner
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{s: s}
}

// Read returns the next triple, or io.EOF after the last one.
func (r *Reader) Read() (graph.Triple, error) {
	for r.s.Scan() {
		r.line++
		p := &lineParser{src: r.s.Text(), line: r.line}
		p.skipSpace()
		if p.done() || p.peek() == '#' {
			continue
		}
		return p.triple()
	}
	if err := r.s.Err(); err != nil {
		return graph.Triple{}, err
	}
	return graph.Triple{}, io.EOF
}

// ReadAll decodes every remaining triple.
func (r *Reader) ReadAll() ([]graph.Triple, error) {
	var out []graph.Triple
	for {
		t, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}

type lineParser struct {
	src  string
	pos  int
	line int
}

func (p *lineParser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *lineParser) done() bool { return p.pos >= len(p.src) }
func (p *lineParser) peek() byte { return p.src[p.pos] }

func (p *lineParser) skipSpace() {
	for !p.done() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *lineParser) triple() (graph.Triple, error) {
	var t graph.Triple
	subj, err := p.term()
	if err != nil {
		return t, err
	}
	if subj.Kind == graph.Literal {
		return t, p.errorf("literal in subject position")
	}
	p.skipSpace()
	pred, err := p.term()
	if err != nil {
		return t, err
	}
	if pred.Kind != graph.IRI {
		return t, p.errorf("predicate must be an IRI")
	}
	p.skipSpace()
	obj, err := p.term()
	if err != nil {
		return t, err
	}
	p.skipSpace()
	if p.done() || p.peek() != '.' {
		return t, p.errorf("expected '.' at column %d", p.pos+1)
	}
	p.pos++
	p.skipSpace()
	if !p.done() && p.peek() != '#' {
		return t, p.errorf("unexpected text after '.' at column %d", p.pos+1)
	}

	t.Subject = subj.Value
	if subj.Kind == graph.Blank {
		t.Subject = "_:" + subj.Value
	}
	t.Predicate = pred.Value
	t.Object = obj
	return t, nil
}

func (p *lineParser) term() (graph.Term, error) {
	if p.done() {
		return graph.Term{}, p.errorf("unexpected end of line")
	}
	switch {
	case p.peek() == '<':
		iri, err := p.iri()
		return graph.NewIRI(iri), err
	case strings.HasPrefix(p.src[p.pos:], "_:"):
		p.pos += 2
		start := p.pos
		for !p.done() && p.peek() != ' ' && p.peek() != '\t' {
			p.pos++
		}
		// A label may contain dots but not end with one.
		for p.pos > start && p.src[p.pos-1] == '.' {
			p.pos--
		}
		if p.pos == start {
			return graph.Term{}, p.errorf("empty blank node label")
		}
		return graph.Term{Kind: graph.Blank, Value: p.src[start:p.pos]}, nil
	case p.peek() == '"':
		return p.literal()
	}
	return graph.Term{}, p.errorf("unexpected %q at column %d", p.peek(), p.pos+1)
}

func (p *lineParser) iri() (string, error) {
	p.pos++ // '<'
	var b strings.Builder
	for !p.done() {
		c := p.peek()
		switch {
		case c == '>':
			p.pos++
			return b.String(), nil
		case c == '\\':
			r, err := p.escape(false)
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		case c <= 0x20 || strings.IndexByte(`<"{}|^`+"`", c) >= 0:
			return "", p.errorf("invalid character %q in IRI", c)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated IRI")
}

func (p *lineParser) literal() (graph.Term, error) {
	p.pos++ // '"'
	var b strings.Builder
	closed := false
	for !p.done() && !closed {
		switch c := p.peek(); c {
		case '"':
			p.pos++
			closed = true
		case '\\':
			r, err := p.escape(true)
			if err != nil {
				return graph.Term{}, err
			}
			b.WriteRune(r)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	if !closed {
		return graph.Term{}, p.errorf("unterminated literal")
	}
	value := b.String()
	if !utf8.ValidString(value) {
		return graph.Term{}, p.errorf("literal is not valid UTF-8")
	}

	switch {
	case strings.HasPrefix(p.src[p.pos:], "@"):
		p.pos++
		start := p.pos
		for !p.done() && (isAlnum(p.peek()) || p.peek() == '-') {
			p.pos++
		}
		if p.pos == start {
			return graph.Term{}, p.errorf("empty language tag")
		}
		return graph.NewLiteral(value, p.src[start:p.pos]), nil
	case strings.HasPrefix(p.src[p.pos:], "^^"):
		p.pos += 2
		if p.done() || p.peek() != '<' {
			return graph.Term{}, p.errorf("datatype must be an IRI")
		}
		dt, err := p.iri()
		if err != nil {
			return graph.Term{}, err
		}
		if dt == XSDString {
			return graph.NewLiteral(value, ""), nil
		}
		return graph.NewTypedLiteral(value, dt), nil
	}
	return graph.NewLiteral(value, ""), nil
}

// escape decodes the escape sequence at p.pos. String escapes are only
// allowed inside literals.
func (p *lineParser) escape(inString bool) (rune, error) {
	if p.pos+1 >= len(p.src) {
		return 0, p.errorf("dangling escape")
	}
	c := p.src[p.pos+1]
	switch c {
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if p.pos+2+n > len(p.src) {
			return 0, p.errorf("short \\%c escape", c)
		}
		v, err := strconv.ParseUint(p.src[p.pos+2:p.pos+2+n], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 0, p.errorf("invalid \\%c escape", c)
		}
		p.pos += 2 + n
		return rune(v), nil
	}
	if inString {
		if r, ok := stringEscapes[c]; ok {
			p.pos += 2
			return r, nil
		}
	}
	return 0, p.errorf("invalid escape \\%c", c)
}

var stringEscapes = map[byte]rune{
	't': '\t', 'b': '\b', 'n': '\n', 'r': '\r', 'f': '\f',
	'"': '"', '\'': '\'', '\\': '\\',
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// Writer encodes triples as N-Triples.
type Writer struct {
	w *bufio.Writer
	n int
}

// NewWriter returns a buffered Writer; call Flush when done.
func NewWriter(w io.Writer) *Writer { return &Writer{w: bufio.NewWriter(w)} }

// Write encodes one triple.
func (w *Writer) Write(t graph.Triple) error {
	var b strings.Builder
	writeNode(&b, t.Subject)
	b.WriteByte(' ')
	writeIRI(&b, t.Predicate)
	b.WriteByte(' ')
	writeTerm(&b, t.Object)
	b.WriteString(" .\n")
	if _, err := w.w.WriteString(b.String()); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count returns the number of triples written.
func (w *Writer) Count() int { return w.n }

// Flush writes any buffered data.
func (w *Writer) Flush() error { return w.w.Flush() }

func writeNode(b *strings.Builder, node string) {
	if strings.HasPrefix(node, "_:") {
		b.WriteString(node)
		return
	}
	writeIRI(b, node)
}

func writeTerm(b *strings.Builder, t graph.Term) {
	switch t.Kind {
	case graph.Blank:
		b.WriteString("_:")
		b.WriteString(t.Value)
	case graph.Literal:
		b.WriteByte('"')
		for _, r := range t.Value {
			switch r {
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			default:
				b.WriteRune(r)
			}
		}
		b.WriteByte('"')
		switch {
		case t.Lang != "":
			b.WriteByte('@')
			b.WriteString(t.Lang)
		case t.Datatype != "" && t.Datatype != XSDString:
			b.WriteString("^^")
			writeIRI(b, t.Datatype)
		}
	default:
		writeIRI(b, t.Value)
	}
}

func writeIRI(b *strings.Builder, iri string) {
	b.WriteByte('<')
	for _, r := range iri {
		if r <= 0x20 || strings.ContainsRune(`<>"{}|^`+"`\\", r) {
			fmt.Fprintf(b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('>')
}
