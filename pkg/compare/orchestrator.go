package compare

import (
	"context"
	"fmt"

	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/japaniel/ownsync/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Orchestrator runs the comparators over every synset of the dump. Any error
// aborts the run; there are no partial reports.
type Orchestrator struct {
	cmp       *Comparator
	relations []Relation
	log       *logrus.Entry

	// Metrics, when set, receives per-synset outcomes.
	Metrics *metrics.Metrics
}

// NewOrchestrator creates an Orchestrator that compares the given relations
// in addition to the list attributes.
func NewOrchestrator(cmp *Comparator, relations []Relation) *Orchestrator {
	return &Orchestrator{
		cmp:       cmp,
		relations: relations,
		log:       logrus.NewEntry(cmp.log),
	}
}

// WithRunID tags every log line and the report with a run identifier.
func (o *Orchestrator) WithRunID(id string) *Orchestrator {
	o.log = o.log.WithField("run_id", id)
	return o
}

// CompareItem compares one attribute of every synset.
func (o *Orchestrator) CompareItem(ctx context.Context, attr dump.Field) (*ItemReport, error) {
	if !attr.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAttribute, attr)
	}
	report := &ItemReport{
		Attribute: attr,
		Compare:   true,
		Docs:      make(map[string]ItemResult, o.cmp.docs.Len()),
	}

	o.log.WithField("attribute", attr).Info("start comparing item")
	for _, s := range o.cmp.docs.Synsets() {
		res, err := o.cmp.CompareItem(ctx, s.DocID, attr)
		if err != nil {
			return nil, err
		}
		report.Count.add(len(res.Both), len(res.DumpOnly), len(res.RDFOnly))
		report.Docs[s.DocID] = res
		o.Metrics.ObserveItems(string(attr), len(res.Both), len(res.DumpOnly), len(res.RDFOnly))

		if !res.Compare {
			report.Compare = false
			o.log.WithFields(logrus.Fields{
				"doc_id":    s.DocID,
				"attribute": attr,
				"dump_only": res.DumpOnly,
				"rdf_only":  res.RDFOnly,
				"both":      res.Both,
			}).Debug("synset comparison resulted false")
		}
	}

	o.log.WithFields(logrus.Fields{
		"attribute": attr,
		"compare":   report.Compare,
		"dump":      report.Count.Dump,
		"rdf":       report.Count.RDF,
		"both":      report.Count.Both,
	}).Info("item comparison done")
	return report, nil
}

// CompareItems compares word forms, glosses and examples and joins them per
// synset. A synset agrees only if all three attributes agree.
func (o *Orchestrator) CompareItems(ctx context.Context) (map[string]*SynsetReport, map[dump.Field]Counts, bool, error) {
	synsets := make(map[string]*SynsetReport, o.cmp.docs.Len())
	counts := make(map[dump.Field]Counts, len(dump.Fields))
	compare := true

	for _, attr := range dump.Fields {
		report, err := o.CompareItem(ctx, attr)
		if err != nil {
			return nil, nil, false, err
		}
		counts[attr] = report.Count
		compare = compare && report.Compare
		for docID, res := range report.Docs {
			sr, ok := synsets[docID]
			if !ok {
				sr = &SynsetReport{Compare: true, Items: make(map[dump.Field]ItemResult, len(dump.Fields))}
				synsets[docID] = sr
			}
			sr.Items[attr] = res
			sr.Compare = sr.Compare && res.Compare
		}
	}
	return synsets, counts, compare, nil
}

// CompareRelation compares one relation for every synset.
func (o *Orchestrator) CompareRelation(ctx context.Context, rel Relation) (*RelationReport, error) {
	if rel.Name == "" || rel.Predicate == "" {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidRelation, rel)
	}
	report := &RelationReport{
		Relation:  rel.Name,
		Predicate: rel.Predicate,
		Compare:   true,
		Pairs:     PairLists{Dump: []Pair{}, RDF: []Pair{}, Both: []Pair{}},
	}

	o.log.WithField("relation", rel.Name).Info("start comparing pointer")
	for _, s := range o.cmp.docs.Synsets() {
		res, err := o.cmp.ComparePointer(ctx, s.DocID, rel)
		if err != nil {
			return nil, err
		}
		report.Count.add(len(res.Both), len(res.DumpOnly), len(res.RDFOnly))
		report.Pairs.Both = append(report.Pairs.Both, res.Both...)
		report.Pairs.Dump = append(report.Pairs.Dump, res.DumpOnly...)
		report.Pairs.RDF = append(report.Pairs.RDF, res.RDFOnly...)
		o.Metrics.ObservePairs(rel.Name, len(res.Both), len(res.DumpOnly), len(res.RDFOnly))

		if !res.Compare {
			report.Compare = false
			o.log.WithFields(logrus.Fields{
				"doc_id":    s.DocID,
				"relation":  rel.Name,
				"dump_only": res.DumpOnly,
				"rdf_only":  res.RDFOnly,
				"both":      res.Both,
			}).Debug("synset comparison resulted false")
		}
	}

	o.log.WithFields(logrus.Fields{
		"relation": rel.Name,
		"compare":  report.Compare,
		"dump":     report.Count.Dump,
		"rdf":      report.Count.RDF,
		"both":     report.Count.Both,
	}).Info("pointer comparison done")
	return report, nil
}

// CompareRelations compares each relation in turn.
func (o *Orchestrator) CompareRelations(ctx context.Context, rels []Relation) (map[string]*RelationReport, bool, error) {
	reports := make(map[string]*RelationReport, len(rels))
	compare := true
	for _, rel := range rels {
		report, err := o.CompareRelation(ctx, rel)
		if err != nil {
			return nil, false, err
		}
		reports[rel.Name] = report
		compare = compare && report.Compare
	}
	return reports, compare, nil
}

// Run performs the full audit: every attribute and every configured relation.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	synsets, counts, itemsAgree, err := o.CompareItems(ctx)
	if err != nil {
		return nil, err
	}
	relations, relationsAgree, err := o.CompareRelations(ctx, o.relations)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Compare:   itemsAgree && relationsAgree,
		Synsets:   synsets,
		Items:     counts,
		Relations: relations,
	}
	if id, ok := o.log.Data["run_id"].(string); ok {
		report.RunID = id
	}
	return report, nil
}
