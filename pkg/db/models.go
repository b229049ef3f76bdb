package db

import "github.com/japaniel/ownsync/pkg/graph"

// tripleRow is the stored shape of a statement.
type tripleRow struct {
	ID        int64
	Subject   string
	Predicate string
	Object    string
	Kind      graph.TermKind
	Lang      string
	Datatype  string
}

func rowFromTriple(t graph.Triple) tripleRow {
	return tripleRow{
		Subject:   t.Subject,
		Predicate: t.Predicate,
		Object:    t.Object.Value,
		Kind:      t.Object.Kind,
		Lang:      t.Object.Lang,
		Datatype:  t.Object.Datatype,
	}
}

func (r tripleRow) Triple() graph.Triple {
	return graph.Triple{
		Subject:   r.Subject,
		Predicate: r.Predicate,
		Object: graph.Term{
			Kind:     r.Kind,
			Value:    r.Object,
			Lang:     r.Lang,
			Datatype: r.Datatype,
		},
	}
}
