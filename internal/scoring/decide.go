package scoring

import (
	"math"

	"retentionloop/internal/params"
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// decideSegments computes the value/risk/keep decision for every segment,
// applies the documented policy overrides, then runs the safety-adjustment
// retry pass if predicted jank exceeds threshold.
func decideSegments(signals []SegmentSignal, p params.P, sw SegmentWeights, rw RiskWeights, jumpCutSeverity float64, audioDiscontinuityCount int) ([]SegmentDecision, Flags) {
	contextScale := 0.6 + p.StoryCoherenceGuard/100*1.6
	threshold := -0.85 + (p.CutAggression/100)*1.7
	lambda := 0.7 + (p.JankGuard/100)*1.4

	decisions := make([]SegmentDecision, 0, len(signals))
	flags := Flags{}

	for _, s := range signals {
		value := sw.Energy*s.Energy + sw.InfoDensity*s.InfoDensity + sw.Novelty*s.Novelty +
			sw.Emotion*s.Emotion - sw.Filler*s.Filler - sw.Redundancy*s.Redundancy

		contextTerm := s.ContextLossRisk * contextScale
		risk := rw.Continuity*s.ContinuityRisk + rw.Context*contextTerm + rw.AudioJank*s.AudioJankRisk

		keep := sigmoid(value - lambda*risk - threshold)
		reasons := []string{}

		durMs := s.Duration * 1000
		if durMs < p.MinClipLenMs {
			if keep < 0.72 {
				keep = 0.72
			}
			reasons = append(reasons, "forced_keep_min_clip")
		}
		if durMs > p.MaxClipLenMs {
			if keep > 0.46 {
				keep = 0.46
			}
			reasons = append(reasons, "max_clip_len_capped")
		}
		if p.StoryCoherenceGuard >= 70 && s.IsContextSegment {
			if keep < 0.63 {
				keep = 0.63
			}
			reasons = append(reasons, "story_coherence_floor")
		}
		if s.AudioJankRisk > 0.78 {
			if keep < 0.58 {
				keep = 0.58
			}
			reasons = append(reasons, "audio_jank_floor")
			flags.MicroCrossfadeRequired = true
		}

		decisions = append(decisions, SegmentDecision{
			SegmentSignal:      s,
			ValueScore:         value,
			RiskScore:          risk,
			KeepProbability:    clamp01(keep),
			KeepRecommendation: keep >= 0.5,
			Reasons:            reasons,
		})
	}

	predictedJank := predictedJankOf(decisions, jumpCutSeverity, audioDiscontinuityCount)
	flags.PredictedJank = predictedJank

	safetyThreshold := 0.58 - (p.JankGuard/100)*0.25
	if predictedJank > safetyThreshold {
		applySafetyAdjustment(decisions, p)
		flags.AutoSafetyAdjusted = true
		flags.AutoSafetyAdjustReason = "predicted_jank_exceeded_threshold"
		adjusted := clampAdjustedCutAggression(p.CutAggression - 8)
		flags.AdjustedCutAggression = &adjusted
	}

	return decisions, flags
}

func predictedJankOf(decisions []SegmentDecision, jumpCutSeverity float64, audioDiscontinuityCount int) float64 {
	n := len(decisions)
	if n == 0 {
		return 0
	}
	discRate := float64(audioDiscontinuityCount) / float64(n)
	droppedRiskSum := 0.0
	droppedCount := 0
	for _, d := range decisions {
		if !d.KeepRecommendation {
			droppedRiskSum += d.RiskScore
			droppedCount++
		}
	}
	meanDroppedRisk := 0.0
	if droppedCount > 0 {
		meanDroppedRisk = droppedRiskSum / float64(droppedCount)
	}
	return 0.44*jumpCutSeverity + 0.26*discRate + 0.30*meanDroppedRisk
}

// applySafetyAdjustment lifts keep probabilities on low-confidence drops,
// weighted by their risk composition, and tags the adjusted decisions.
func applySafetyAdjustment(decisions []SegmentDecision, p params.P) {
	for i := range decisions {
		d := &decisions[i]
		if d.KeepRecommendation {
			continue
		}
		if d.KeepProbability < 0.45 {
			continue // high-confidence drop, not touched
		}
		lift := 0.15 * (1 - d.RiskScore)
		d.KeepProbability = clamp01(d.KeepProbability + lift)
		if d.KeepProbability >= 0.5 {
			d.KeepRecommendation = true
		}
		d.Reasons = append(d.Reasons, "auto_safety_jank_adjust")
	}
}

func clampAdjustedCutAggression(v float64) float64 {
	return params.Clamp("cut_aggression", v)
}
