package feedback

import "math"

// buildSnapshot aggregates outcomes (plus the recent render-quality jank
// average) into a brain_snapshot with proposed parameter deltas.
func buildSnapshot(outcomes []Outcome, avgJank float64) Snapshot {
	n := len(outcomes)
	snap := Snapshot{
		SampleSize:   n,
		ByEditorMode: map[string]float64{},
		ByStrategy:   map[string]float64{},
		ByPlatform:   map[string]float64{},
	}
	if n == 0 {
		return snap
	}

	var outcomeSum, hookSum, hookN, completionSum, completionN float64
	modeSum := map[string]float64{}
	modeN := map[string]int{}
	strategySum := map[string]float64{}
	strategyN := map[string]int{}
	platformSum := map[string]float64{}
	platformN := map[string]int{}

	for _, o := range outcomes {
		outcomeSum += o.Value
		if o.HookHold != nil {
			hookSum += *o.HookHold
			hookN++
		}
		if o.Completion != nil {
			completionSum += *o.Completion
			completionN++
		}
		if o.EditorMode != "" {
			modeSum[o.EditorMode] += o.Value
			modeN[o.EditorMode]++
		}
		if o.Strategy != "" {
			strategySum[o.Strategy] += o.Value
			strategyN[o.Strategy]++
		}
		if o.Platform != "" {
			platformSum[o.Platform] += o.Value
			platformN[o.Platform]++
		}
	}

	snap.AvgOutcome = outcomeSum / float64(n)
	if hookN > 0 {
		snap.AvgHookHold = hookSum / hookN
	}
	if completionN > 0 {
		snap.AvgCompletion = completionSum / completionN
	}
	snap.AvgJank = avgJank

	snap.PlatformShare = map[string]float64{}
	for platform, count := range platformN {
		snap.ByPlatform[platform] = platformSum[platform] / float64(count)
		snap.PlatformShare[platform] = float64(count) / float64(n)
	}
	for mode, count := range modeN {
		snap.ByEditorMode[mode] = modeSum[mode] / float64(count)
	}
	for strategy, count := range strategyN {
		snap.ByStrategy[strategy] = strategySum[strategy] / float64(count)
	}

	var topMode string
	var topAvg = math.Inf(-1)
	for mode, avg := range snap.ByEditorMode {
		if avg > topAvg {
			topAvg, topMode = avg, mode
		}
	}
	if topMode != "" {
		snap.TopEditorMode = topMode
		snap.TopEditorModeMargin = clampFloat(topAvg-snap.AvgOutcome, 0, 1)
	}

	sampleSignal := math.Log10(float64(n)+1) / 2.4
	snap.Confidence = clampFloat(0.3+0.7*sampleSignal, 0, 1)

	outcomeDeficit := clampFloat((0.72-snap.AvgOutcome)/0.34, 0, 1)
	hookDeficit := clampFloat((0.65-snap.AvgHookHold)/0.3, 0, 1)
	completionDeficit := clampFloat((0.55-snap.AvgCompletion)/0.3, 0, 1)
	jankDeficit := clampFloat((snap.AvgJank-0.3)/0.4, 0, 1)

	// cut_aggression, jank_guard, and story_coherence_guard sit on a [0,100]
	// scale; their deltas are sized an order of magnitude larger than the
	// [0,2]-ish weight fields below so a full-deficit nudge is still
	// meaningful against that range.
	deltas := map[string]float64{
		"hook_priority_weight":        0.2*hookDeficit + 0.05*outcomeDeficit,
		"pattern_interrupt_every_sec": -1.5 * hookDeficit,
		"cut_aggression":              -8*jankDeficit - 4*completionDeficit,
		"jank_guard":                  12 * jankDeficit,
		"story_coherence_guard":       8 * completionDeficit,
		"pacing_multiplier":           0.08*outcomeDeficit - 0.05*jankDeficit,
	}
	snap.ProposedDeltas = map[string]float64{}
	var deltaAbsSum float64
	for k, v := range deltas {
		if math.Abs(v) < 0.01 {
			continue
		}
		snap.ProposedDeltas[k] = v
		deltaAbsSum += math.Abs(v)
	}

	snap.PredictedUplift = clampFloat(
		(0.72-snap.AvgOutcome)*0.45+deltaAbsSum*0.0003+snap.TopEditorModeMargin*0.55,
		0, 0.18,
	)

	return snap
}
