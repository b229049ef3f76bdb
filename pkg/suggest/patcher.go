package suggest

import (
	"io"

	"github.com/japaniel/ownsync/pkg/dump"
	"github.com/japaniel/ownsync/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// PatchResult counts what Apply did.
type PatchResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Patcher applies accepted suggestions to a dump collection.
type Patcher struct {
	Log     *logrus.Logger
	Metrics *metrics.Metrics
}

// Apply edits the collection in suggestion order. Nothing here is fatal:
// unknown synsets, unsupported actions and removals of absent values are
// logged and skipped.
func (p *Patcher) Apply(col *dump.Collection, accepted []Suggestion) PatchResult {
	log := p.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	var res PatchResult
	for _, s := range accepted {
		entry := log.WithFields(logrus.Fields{
			"suggestion_id": s.ID,
			"doc_id":        s.DocID,
			"action":        s.Action,
		})
		ok := p.apply(col, s, entry)
		p.Metrics.ObservePatch(ok)
		if ok {
			res.Applied++
		} else {
			res.Skipped++
		}
	}

	log.WithFields(logrus.Fields{
		"applied": res.Applied,
		"skipped": res.Skipped,
	}).Info("suggestions applied")
	return res
}

func (p *Patcher) apply(col *dump.Collection, s Suggestion, log *logrus.Entry) bool {
	synset, ok := col.Get(s.DocID)
	if !ok {
		log.Warn("suggestion for unknown synset, skipping")
		return false
	}
	patch, ok := handlers[s.Kind()]
	if !ok {
		log.Warn("not a valid action, skipping")
		return false
	}
	if err := patch(synset, s.Params); err != nil {
		log.WithError(err).Warn("could not apply suggestion")
		return false
	}
	log.Debug("suggestion applied")
	return true
}
