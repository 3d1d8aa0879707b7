package scoring

import "math"

// computeSubscores derives the seven per-render dimensions from the
// extracted features and segment decisions. Each formula is a fixed convex
// combination, clamped to [0,1].
func computeSubscores(f Features, decisions []SegmentDecision, p struct{ EnergyVarianceTarget float64 }, predictedJank float64) Subscores {
	hook := clamp01(0.5*firstWindowEnergy(f) + 0.3*boolToFloat(f.BestMomentInFirst8s) + 0.2*(1-normalize(f.HookTimeToPayoffSec, 0, 8)))

	pacing := clamp01(0.6*normalizeCutRate(f.CutRate) + 0.4*(1-normalize(math.Abs(f.ShotLengthMeanSec-3.2), 0, 5)))

	energy := clamp01(0.7*f.EnergyMean + 0.3*(1-math.Abs(f.EnergyVariance-p.EnergyVarianceTarget)))

	variety := clamp01(0.5*f.SpikeDensity + 0.5*meanNovelty(decisions))

	story := clamp01(0.6*meanContextSegmentKeep(decisions) + 0.4*meanKeepProbability(decisions))

	filler := clamp01(0.6*f.FillerRate + 0.4*meanFillerChannel(decisions))

	jank := clamp01(0.6*clamp01(predictedJank) + 0.4*meanAudioJankOfKept(decisions))

	return Subscores{
		Hook:    hook,
		Pacing:  pacing,
		Energy:  energy,
		Variety: variety,
		Story:   story,
		Filler:  filler,
		Jank:    jank,
	}
}

// computeTotalScore applies the logistic-squashed weighted combination.
func computeTotalScore(s Subscores, w ScoringWeights) float64 {
	x := w.Hook*s.Hook + w.Pacing*s.Pacing + w.Energy*s.Energy + w.Variety*s.Variety +
		w.Story*s.Story - w.Filler*s.Filler - w.Jank*s.Jank
	return 100 * sigmoid(x)
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return clamp01((v - lo) / (hi - lo))
}

func normalizeCutRate(cutsPerMinute float64) float64 {
	// 0 cuts/min -> 0, 20+ cuts/min -> 1
	return normalize(cutsPerMinute, 0, 20)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func firstWindowEnergy(f Features) float64 {
	if len(f.SegmentSignals) == 0 {
		return f.EnergyMean
	}
	return f.SegmentSignals[0].Energy
}

func meanNovelty(decisions []SegmentDecision) float64 {
	if len(decisions) == 0 {
		return 0
	}
	total := 0.0
	for _, d := range decisions {
		total += d.Novelty
	}
	return total / float64(len(decisions))
}

func meanContextSegmentKeep(decisions []SegmentDecision) float64 {
	total, n := 0.0, 0
	for _, d := range decisions {
		if d.IsContextSegment {
			total += d.KeepProbability
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return total / float64(n)
}

func meanKeepProbability(decisions []SegmentDecision) float64 {
	if len(decisions) == 0 {
		return 0
	}
	total := 0.0
	for _, d := range decisions {
		total += d.KeepProbability
	}
	return total / float64(len(decisions))
}

func meanFillerChannel(decisions []SegmentDecision) float64 {
	if len(decisions) == 0 {
		return 0
	}
	total := 0.0
	for _, d := range decisions {
		total += d.Filler
	}
	return total / float64(len(decisions))
}

func meanAudioJankOfKept(decisions []SegmentDecision) float64 {
	total, n := 0.0, 0
	for _, d := range decisions {
		if d.KeepRecommendation {
			total += d.AudioJankRisk
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
