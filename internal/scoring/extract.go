package scoring

import (
	"math"
	"strings"
)

// extractFeatures computes the full Features bundle for one job's inputs.
// It is the only place duration and segmentation are resolved, run exactly
// once against the final duration (see DESIGN.md Open Question 2).
func extractFeatures(a Analysis, transcript []TranscriptCue, cutList any) Features {
	missing := []string{}
	if len(transcript) == 0 {
		missing = append(missing, "transcript")
	}
	if a.SilenceRatio == nil {
		missing = append(missing, "silence_ratio")
	}
	if a.JumpCutSeverity == nil {
		missing = append(missing, "jump_cut_severity")
	}
	if len(a.EngagementWindows) == 0 {
		missing = append(missing, "engagement_windows")
	}

	rawSegsProbe := normalizeRawSegments(cutList)
	probeMaxEnd := maxSegmentEnd(rawSegsProbe)
	if probeMaxEnd == 0 {
		probeMaxEnd = maxSegmentEnd(a.EditPlanSegments)
	}
	duration := ResolveDuration(a, probeMaxEnd)

	segs, hadExplicitCutList := NormalizeCutList(cutList, a.EditPlanSegments, duration)
	if !hadExplicitCutList && len(a.EditPlanSegments) == 0 {
		missing = append(missing, "cut_list")
	}

	windows := a.EngagementWindows
	if len(windows) == 0 {
		windows = []EngagementWindow{{Start: 0, End: duration, Score: 0.5}}
	}

	signals := make([]SegmentSignal, 0, len(segs))
	for _, s := range segs {
		signals = append(signals, extractSegmentSignal(s, windows, transcript))
	}

	silenceRatio := 0.0
	if a.SilenceRatio != nil {
		silenceRatio = *a.SilenceRatio
	}
	jumpCutSeverity := 0.0
	if a.JumpCutSeverity != nil {
		jumpCutSeverity = *a.JumpCutSeverity
	}

	fillerRate := meanFillerRate(transcript)
	energyMean, energyVariance := energyMoments(windows)
	shotLengthMean := meanSegmentDuration(segs)
	cutRate := 0.0
	if duration > 0 {
		cutRate = float64(len(segs)) / (duration / 60.0)
	}
	redundancy := meanRedundancy(signals)
	spikeDensity := spikeDensityOf(windows)
	flatSeconds := flatSegmentSeconds(windows)
	hookTTP := hookTimeToPayoff(windows)
	bestMoment8 := bestMomentInFirst8s(windows)

	return Features{
		DurationSec:             duration,
		SilenceRatio:            silenceRatio,
		FillerRate:              fillerRate,
		ShotLengthMeanSec:       shotLengthMean,
		CutRate:                 cutRate,
		RedundancyScore:         redundancy,
		EnergyMean:              energyMean,
		EnergyVariance:          energyVariance,
		SpikeDensity:            spikeDensity,
		FlatSegmentSeconds:      flatSeconds,
		JumpCutSeverity:         jumpCutSeverity,
		AudioDiscontinuityCount: a.AudioDiscontinuityCount,
		CaptionDesyncCount:      a.CaptionDesyncCount,
		HookTimeToPayoffSec:     hookTTP,
		BestMomentInFirst8s:     bestMoment8,
		SegmentSignals:          signals,
		MissingSignals:          missing,
	}
}

func extractSegmentSignal(s RawSegment, windows []EngagementWindow, transcript []TranscriptCue) SegmentSignal {
	dur := s.End - s.Start
	if dur < 0 {
		dur = 0
	}
	energy := overlapWeightedAverage(s, windows)
	text := overlappingText(s, transcript)
	wordCount := len(strings.Fields(text))
	density := 0.0
	if dur > 0 {
		density = clamp01(float64(wordCount) / (dur * 2.5))
	}
	fillerCount := countFillerWords(text)
	fillerChannel := 0.0
	if wordCount > 0 {
		fillerChannel = clamp01(float64(fillerCount) / float64(wordCount) * 4)
	}
	redundancy := bigramRepeatRatio(text)
	novelty := clamp01(1 - redundancy)
	emotion := clamp01(energy*0.6 + density*0.4)

	speed := 0.0
	if dur > 0 {
		speed = float64(wordCount) / dur
	}
	continuity := 0.0
	if dur < 0.45 {
		continuity += 0.4
	}
	if speed > 1.28*2.5 { // words/sec normalized against ~2.5 wps baseline
		continuity += 0.3
	}
	if math.Abs(energy-emotion) > 0.4 {
		continuity += 0.3
	}
	continuity = clamp01(continuity)

	isContext := contextTermRegex.MatchString(text)
	contextLoss := 0.0
	if isContext {
		contextLoss = 0.72
	} else {
		lateness := 0.0
		// approximated by normalized position within [0,1] of a 10-bucket scheme; callers pass absolute time.
		lateness = clamp01(s.Start / 600.0)
		contextLoss = clamp01(0.15 + density*0.3 + lateness*0.2)
	}

	audioJank := 0.0
	if dur < 0.6 {
		audioJank += 0.35
	}
	audioJank += clamp01(math.Abs(energy-0.5) * 0.6)
	audioJank = clamp01(audioJank)

	return SegmentSignal{
		Start:            s.Start,
		End:              s.End,
		Duration:         dur,
		Energy:           energy,
		InfoDensity:      density,
		Novelty:          novelty,
		Emotion:          emotion,
		Filler:           fillerChannel,
		Redundancy:       redundancy,
		ContinuityRisk:   continuity,
		ContextLossRisk:  contextLoss,
		AudioJankRisk:    audioJank,
		IsContextSegment: isContext,
	}
}

func overlapWeightedAverage(s RawSegment, windows []EngagementWindow) float64 {
	total := 0.0
	weight := 0.0
	for _, w := range windows {
		lo := math.Max(s.Start, w.Start)
		hi := math.Min(s.End, w.End)
		if hi <= lo {
			continue
		}
		d := hi - lo
		total += w.Score * d
		weight += d
	}
	if weight == 0 {
		return 0.5
	}
	return clamp01(total / weight)
}

func overlappingText(s RawSegment, transcript []TranscriptCue) string {
	var b strings.Builder
	for _, c := range transcript {
		if c.End <= s.Start && c.Start != c.End {
			continue
		}
		if c.Start >= s.End && c.Start != c.End {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.Text)
	}
	return b.String()
}

func countFillerWords(text string) int {
	count := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:")
		if fillerStopwords[w] {
			count++
		}
	}
	return count
}

func bigramRepeatRatio(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 4 {
		return 0
	}
	seen := map[string]int{}
	total := 0
	for i := 0; i+1 < len(words); i++ {
		bg := words[i] + " " + words[i+1]
		seen[bg]++
		total++
	}
	repeats := 0
	for _, c := range seen {
		if c > 1 {
			repeats += c - 1
		}
	}
	if total == 0 {
		return 0
	}
	return clamp01(float64(repeats) / float64(total))
}

func meanFillerRate(transcript []TranscriptCue) float64 {
	if len(transcript) == 0 {
		return 0
	}
	var b strings.Builder
	for _, c := range transcript {
		b.WriteString(c.Text)
		b.WriteByte(' ')
	}
	words := strings.Fields(b.String())
	if len(words) == 0 {
		return 0
	}
	count := countFillerWords(b.String())
	return clamp01(float64(count) / float64(len(words)) * 4)
}

func energyMoments(windows []EngagementWindow) (mean, variance float64) {
	if len(windows) == 0 {
		return 0.5, 0
	}
	sum := 0.0
	totalWeight := 0.0
	for _, w := range windows {
		d := w.End - w.Start
		if d <= 0 {
			d = 1
		}
		sum += w.Score * d
		totalWeight += d
	}
	if totalWeight == 0 {
		return 0.5, 0
	}
	mean = sum / totalWeight
	varSum := 0.0
	for _, w := range windows {
		d := w.End - w.Start
		if d <= 0 {
			d = 1
		}
		diff := w.Score - mean
		varSum += diff * diff * d
	}
	variance = clamp01(varSum / totalWeight)
	return mean, variance
}

func meanSegmentDuration(segs []RawSegment) float64 {
	if len(segs) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range segs {
		total += s.End - s.Start
	}
	return total / float64(len(segs))
}

func meanRedundancy(signals []SegmentSignal) float64 {
	if len(signals) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range signals {
		total += s.Redundancy
	}
	return total / float64(len(signals))
}

func spikeDensityOf(windows []EngagementWindow) float64 {
	if len(windows) < 2 {
		return 0
	}
	spikes := 0
	for i := 1; i < len(windows); i++ {
		if math.Abs(windows[i].Score-windows[i-1].Score) > 0.25 {
			spikes++
		}
	}
	return clamp01(float64(spikes) / float64(len(windows)))
}

func flatSegmentSeconds(windows []EngagementWindow) float64 {
	total := 0.0
	for i := 1; i < len(windows); i++ {
		if math.Abs(windows[i].Score-windows[i-1].Score) < 0.05 {
			total += windows[i].End - windows[i].Start
		}
	}
	return total
}

func hookTimeToPayoff(windows []EngagementWindow) float64 {
	for _, w := range windows {
		if w.Score >= 0.75 {
			return w.Start
		}
	}
	if len(windows) > 0 {
		return windows[0].End
	}
	return 8
}

func bestMomentInFirst8s(windows []EngagementWindow) bool {
	for _, w := range windows {
		if w.Start < 8 && w.Score >= 0.75 {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
