// Package reconcile runs the write path: vote-filter the suggestions, patch
// the dump, then rebuild the derived subgraph from the patched dump.
package reconcile

import (
	"context"
	"errors"
	"io"

	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/japaniel/ownsync/pkg/metrics"
	"github.com/japaniel/ownsync/pkg/suggest"
	"github.com/japaniel/ownsync/pkg/update"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoDump is returned when Run is called without a collection.
	ErrNoDump = errors.New("no dump collection")
	// ErrNoUpdater is returned when a non-dry run has no graph to write to.
	ErrNoUpdater = errors.New("no graph updater")
)

// Input is everything one run consumes. The engine owns Docs until Run
// returns; nothing else may touch it meanwhile.
type Input struct {
	Docs        *dump.Collection
	Suggestions []suggest.Suggestion
	Votes       []suggest.Vote
	Policy      suggest.Policy
	// DryRun filters and patches in memory but leaves the graph untouched.
	DryRun bool
}

// Result summarizes a run.
type Result struct {
	Suggestions int                 `json:"suggestions"`
	Accepted    int                 `json:"accepted"`
	Orphans     int                 `json:"orphan_votes"`
	Patch       suggest.PatchResult `json:"patch"`
	Update      *update.Stats       `json:"update,omitempty"`
}

// Engine sequences the filter, the patcher and the updater.
type Engine struct {
	updater *update.Updater
	log     *logrus.Logger

	Metrics *metrics.Metrics
}

// New creates an Engine that regenerates the graph with updater.
func New(updater *update.Updater, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Engine{updater: updater, log: log}
}

// Run applies the accepted suggestions to in.Docs and regenerates the graph.
// The updater only starts once every patch has been applied.
func (e *Engine) Run(ctx context.Context, in Input) (*Result, error) {
	if in.Docs == nil {
		return nil, ErrNoDump
	}

	filter := &suggest.Filter{Policy: in.Policy, Log: e.log, Metrics: e.Metrics}
	selected := filter.Select(in.Suggestions, in.Votes)

	patcher := &suggest.Patcher{Log: e.log, Metrics: e.Metrics}
	res := &Result{
		Suggestions: len(in.Suggestions),
		Accepted:    len(selected.Accepted),
		Orphans:     selected.Orphans,
		Patch:       patcher.Apply(in.Docs, selected.Accepted),
	}

	if in.DryRun {
		e.log.Info("dry run, graph left untouched")
		return res, nil
	}
	if e.updater == nil {
		return nil, ErrNoUpdater
	}
	if e.Metrics != nil {
		e.updater.Metrics = e.Metrics
	}
	stats, err := e.updater.Regenerate(ctx, in.Docs)
	if err != nil {
		return nil, err
	}
	res.Update = &stats
	return res, nil
}
