package scoring

import "retentionloop/internal/params"

// Option overrides one of the three weight groups for a single Evaluate call.
type Option func(*options)

type options struct {
	segmentWeights SegmentWeights
	riskWeights    RiskWeights
	scoringWeights ScoringWeights
}

// WithSegmentWeights overrides the per-segment value formula's (a..f)
// coefficients.
func WithSegmentWeights(w SegmentWeights) Option {
	return func(o *options) { o.segmentWeights = w }
}

// WithRiskWeights overrides the per-segment risk formula's (g,h,j)
// coefficients.
func WithRiskWeights(w RiskWeights) Option {
	return func(o *options) { o.riskWeights = w }
}

// WithScoringWeights overrides the total-score formula's (w1..w7)
// coefficients; each is clamped to [0.2, 3.5].
func WithScoringWeights(w ScoringWeights) Option {
	return func(o *options) { o.scoringWeights = w.Clamp() }
}

// Evaluate is the pure scoring entrypoint: a deterministic function of its
// inputs and params alone. No clock, no RNG; two calls with equal inputs
// produce equal outputs.
//
// analysis is an Analysis value (already normalized by the caller, or the
// zero value if entirely absent). transcript and cutList are the
// loosely-typed boundary payloads and are normalized internally.
func Evaluate(analysis Analysis, transcript any, cutList any, p params.P, opts ...Option) (Result, error) {
	o := options{
		segmentWeights: DefaultSegmentWeights(),
		riskWeights:    DefaultRiskWeights(),
		scoringWeights: DefaultScoringWeights(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	segmentWeights := resolveSegmentWeights(o.segmentWeights, p)
	scoringWeights := resolveScoringWeights(o.scoringWeights, p)

	cues := NormalizeTranscript(transcript)
	features := extractFeatures(analysis, cues, cutList)

	decisions, flags := decideSegments(features.SegmentSignals, p, segmentWeights, o.riskWeights, features.JumpCutSeverity, features.AudioDiscontinuityCount)

	subscores := computeSubscores(features, decisions, struct{ EnergyVarianceTarget float64 }{p.EnergyVarianceTarget}, flags.PredictedJank)
	scoreTotal := computeTotalScore(subscores, scoringWeights)

	return Result{
		ScoreTotal: scoreTotal,
		Subscores:  subscores,
		Features:   features,
		Flags:      flags,
		Decisions:  decisions,
	}, nil
}
