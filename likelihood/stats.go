package likelihood

import (
	"fmt"

	"github.com/CraigKelly/popinfer/buffer"
)

// Stage is how far an evaluation got
type Stage int

// Evaluation stages, in order
const (
	StageInit Stage = iota
	StageRateUpdated
	StageInjectionWeighted
	StagePosteriorWeighted
	StageVarianceChecked
	StageCombined
	StageSanitized
)

var stageNames = []string{
	"init", "rate-updated", "injection-weighted", "posterior-weighted",
	"variance-checked", "combined", "sanitized",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Outcome is how an evaluation ended
type Outcome int

// Evaluation outcomes
const (
	OutcomeNone               Outcome = iota // nothing evaluated yet
	OutcomeAccepted                          // finite log likelihood
	OutcomeRejectedInjections                // too few effective injections
	OutcomeRejectedPosterior                 // an event kept too few effective samples
	OutcomeRejectedVariance                  // likelihood variance above threshold
	OutcomeNaN                               // NaN mapped to -Inf
	OutcomeError                             // an error was returned
	numOutcomes
)

var outcomeNames = []string{
	"none", "accepted", "rejected-injections", "rejected-posterior",
	"rejected-variance", "nan", "error",
}

func (o Outcome) String() string {
	if o < 0 || o >= numOutcomes {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Rejected is true for the stability rejections
func (o Outcome) Rejected() bool {
	return o == OutcomeRejectedInjections || o == OutcomeRejectedPosterior || o == OutcomeRejectedVariance
}

// Stats counts evaluation outcomes and keeps a rolling acceptance rate
type Stats struct {
	Evaluations int64
	counts      [numOutcomes]int64
	recent      *buffer.CircularFloat
}

func newStats(window int) (*Stats, error) {
	recent, err := buffer.NewCircularFloat(window)
	if err != nil {
		return nil, err
	}
	return &Stats{recent: recent}, nil
}

func (s *Stats) record(o Outcome) {
	s.Evaluations++
	s.counts[o]++
	if o == OutcomeAccepted {
		s.recent.Add(1)
	} else {
		s.recent.Add(0)
	}
}

// Count is the number of evaluations that ended with o
func (s *Stats) Count(o Outcome) int64 {
	if o < 0 || o >= numOutcomes {
		return 0
	}
	return s.counts[o]
}

// Acceptance is the accepted fraction over the recent window
func (s *Stats) Acceptance() float64 {
	return s.recent.Mean()
}

// AcceptanceTrend is the recent acceptance of the newer half of the window
// minus that of the older half. It is 0 until the window is full.
func (s *Stats) AcceptanceTrend() float64 {
	if s.recent.Count < s.recent.BufSize {
		return 0
	}
	half := float64(s.recent.BufSize / 2)
	older, newer := 0.0, 0.0
	for it := s.recent.FirstHalf(); it.Next(); {
		older += it.Value()
	}
	for it := s.recent.SecondHalf(); it.Next(); {
		newer += it.Value()
	}
	return (newer - older) / half
}
