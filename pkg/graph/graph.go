// Package graph describes the triple-store capability the reconciler consumes.
// The store itself is a black box: callers hand it parameterized pattern queries
// and receive fully materialized rows of bound values.
package graph

import (
	"context"
	"fmt"
)

// TermKind distinguishes resources from literal values in object position.
type TermKind int

const (
	IRI TermKind = iota
	Literal
	Blank
)

// Term is an RDF node. Lang and Datatype only apply to literals.
type Term struct {
	Kind     TermKind
	Value    string
	Lang     string
	Datatype string
}

// NewIRI returns a resource term.
func NewIRI(v string) Term { return Term{Kind: IRI, Value: v} }

// NewLiteral returns a plain literal, language-tagged when lang is non-empty.
func NewLiteral(v, lang string) Term { return Term{Kind: Literal, Value: v, Lang: lang} }

// NewTypedLiteral returns a literal with an explicit datatype IRI.
func NewTypedLiteral(v, datatype string) Term {
	return Term{Kind: Literal, Value: v, Datatype: datatype}
}

func (t Term) String() string {
	switch t.Kind {
	case Literal:
		switch {
		case t.Lang != "":
			return fmt.Sprintf("%q@%s", t.Value, t.Lang)
		case t.Datatype != "":
			return fmt.Sprintf("%q^^<%s>", t.Value, t.Datatype)
		}
		return fmt.Sprintf("%q", t.Value)
	case Blank:
		return "_:" + t.Value
	}
	return "<" + t.Value + ">"
}

// Triple is a single statement. Subjects and predicates are IRIs or blank node
// labels; blank subjects are stored with the "_:" prefix.
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

// Row is one solution of a pattern query. Unbound variables come back empty.
type Row []string

// Querier issues a parameterized pattern query and returns every solution.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// Store is a Querier that can also be modified. Exec runs a parameterized
// update and reports the number of affected triples.
type Store interface {
	Querier
	Exec(ctx context.Context, stmt string, args ...any) (int64, error)
	Insert(ctx context.Context, triples []Triple) error
}
