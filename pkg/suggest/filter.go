package suggest

import (
	"io"

	"github.com/japaniel/ownsync/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Policy is the two-tier moderation gate. A suggestion by a senior user is
// accepted once its score reaches SeniorThreshold; any suggestion is accepted
// once its score reaches JuniorThreshold.
type Policy struct {
	SeniorUsers     []string `yaml:"senior_users"`
	SeniorThreshold int      `yaml:"senior_threshold"`
	JuniorThreshold int      `yaml:"junior_threshold"`
}

// DefaultPolicy returns the thresholds used when none are configured.
func DefaultPolicy() Policy {
	return Policy{SeniorThreshold: 1, JuniorThreshold: 2}
}

// IsSenior reports whether user is in the senior list.
func (p Policy) IsSenior(user string) bool {
	for _, u := range p.SeniorUsers {
		if u == user {
			return true
		}
	}
	return false
}

// Accept reports whether a suggestion with the given vote score passes.
func (p Policy) Accept(s Suggestion, score int) bool {
	if s.Status != StatusNew || s.Kind() == ActionComment {
		return false
	}
	return (score >= p.SeniorThreshold && p.IsSenior(s.User)) || score >= p.JuniorThreshold
}

// FilterResult is the outcome of scoring suggestions against votes.
type FilterResult struct {
	// Accepted keeps the input order.
	Accepted []Suggestion
	// Scores is the vote sum of every distinct suggestion id.
	Scores map[ID]int
	// Orphans counts votes for ids no suggestion carries.
	Orphans int
}

// Filter selects the suggestions the policy accepts.
type Filter struct {
	Policy  Policy
	Log     *logrus.Logger
	Metrics *metrics.Metrics
}

// Select joins votes to suggestions by id and applies the policy. Votes for
// unknown suggestions and repeated suggestion ids are logged and dropped.
func (f *Filter) Select(suggestions []Suggestion, votes []Vote) FilterResult {
	log := f.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	res := FilterResult{Scores: make(map[ID]int, len(suggestions))}
	unique := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if _, ok := res.Scores[s.ID]; ok {
			log.WithField("suggestion_id", s.ID).Warn("duplicate suggestion id, keeping the first")
			continue
		}
		res.Scores[s.ID] = 0
		unique = append(unique, s)
	}

	for _, v := range votes {
		if _, ok := res.Scores[v.SuggestionID]; !ok {
			res.Orphans++
			log.WithFields(logrus.Fields{
				"suggestion_id": v.SuggestionID,
				"user":          v.User,
			}).Warn("vote for unknown suggestion, dropping")
			continue
		}
		res.Scores[v.SuggestionID] += v.Value
	}

	for _, s := range unique {
		ok := f.Policy.Accept(s, res.Scores[s.ID])
		f.Metrics.ObserveSuggestion(ok)
		if ok {
			res.Accepted = append(res.Accepted, s)
		}
	}

	log.WithFields(logrus.Fields{
		"suggestions": len(unique),
		"votes":       len(votes),
		"orphans":     res.Orphans,
		"accepted":    len(res.Accepted),
	}).Info("suggestions filtered")
	return res
}
