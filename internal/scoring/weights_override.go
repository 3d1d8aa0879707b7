package scoring

import (
	"math"

	"retentionloop/internal/params"
)

// toleranceFactor turns a [0,2]-bounded tolerance/priority param (default
// 1.0) into a multiplier: values above 1 soften the term it scales, values
// below 1 sharpen it. Clamped away from zero so a 0-valued param doesn't
// blow the multiplier up to infinity.
func toleranceFactor(v float64) float64 {
	return 1 / math.Max(v, 0.25)
}

// resolveSegmentWeights applies, in order: any explicit Option override,
// then params.P.SegmentWeights' per-field overrides, then the
// filler/redundancy tolerance params as multipliers on the corresponding
// coefficient. With every params field at its default (1.0) and no
// explicit overrides, this reproduces DefaultSegmentWeights() unchanged.
func resolveSegmentWeights(base SegmentWeights, p params.P) SegmentWeights {
	if o := p.SegmentWeights; o != nil {
		if o.Energy != nil {
			base.Energy = *o.Energy
		}
		if o.InfoDensity != nil {
			base.InfoDensity = *o.InfoDensity
		}
		if o.Novelty != nil {
			base.Novelty = *o.Novelty
		}
		if o.Emotion != nil {
			base.Emotion = *o.Emotion
		}
		if o.Filler != nil {
			base.Filler = *o.Filler
		}
		if o.Redundancy != nil {
			base.Redundancy = *o.Redundancy
		}
	}
	base.Filler *= toleranceFactor(p.FillerToleranceWeight)
	base.Redundancy *= toleranceFactor(p.RedundancyToleranceWeight)
	return base
}

// resolveScoringWeights is resolveSegmentWeights' counterpart for the
// total-score formula's (w1..w7) coefficients. hook_priority_weight scales
// w1 directly; filler_tolerance_weight softens w6 the same way it softens
// the segment-level filler coefficient, so raising filler tolerance once
// relaxes both the per-segment keep decision and the aggregate score.
func resolveScoringWeights(base ScoringWeights, p params.P) ScoringWeights {
	if o := p.ScoringWeights; o != nil {
		if o.Hook != nil {
			base.Hook = *o.Hook
		}
		if o.Pacing != nil {
			base.Pacing = *o.Pacing
		}
		if o.Energy != nil {
			base.Energy = *o.Energy
		}
		if o.Variety != nil {
			base.Variety = *o.Variety
		}
		if o.Story != nil {
			base.Story = *o.Story
		}
		if o.Filler != nil {
			base.Filler = *o.Filler
		}
		if o.Jank != nil {
			base.Jank = *o.Jank
		}
	}
	base = base.Clamp()
	base.Hook *= p.HookPriorityWeight
	base.Filler *= toleranceFactor(p.FillerToleranceWeight)
	return base
}
