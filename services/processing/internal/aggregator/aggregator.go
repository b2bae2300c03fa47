// Package aggregator computes the analytical tables over a normalized
// Dataset. Every function is a pure computation over an immutable snapshot.
package aggregator

import (
	"skilltrends/common/skills"
)

const (
	DefaultNoiseThreshold = 1.0
	DefaultGrowthFloor    = 0.1
	DefaultMinSupport     = 10
	DefaultCandidateLimit = 200
	DefaultTopMinCount    = 5
)

type Options struct {
	// NoiseThreshold is the minimum popularity percentage a skill must
	// reach in some period to appear in a trend table.
	NoiseThreshold float64
	// GrowthFloor replaces a smaller previous popularity in the growth
	// denominator.
	GrowthFloor float64
	// MinSupport is the fewest salaried records a skill needs to appear in
	// a pay table.
	MinSupport int
	// CandidateLimit bounds the skills considered for a pay table to the
	// most frequently mentioned ones.
	CandidateLimit int
	TopMinCount    int
}

func DefaultOptions() Options {
	return Options{
		NoiseThreshold: DefaultNoiseThreshold,
		GrowthFloor:    DefaultGrowthFloor,
		MinSupport:     DefaultMinSupport,
		CandidateLimit: DefaultCandidateLimit,
		TopMinCount:    DefaultTopMinCount,
	}
}

type Aggregator struct {
	classifier *skills.Classifier
	opts       Options
}

func New(classifier *skills.Classifier, opts Options) *Aggregator {
	return &Aggregator{classifier: classifier, opts: opts}
}

func (a *Aggregator) Options() Options {
	return a.opts
}
