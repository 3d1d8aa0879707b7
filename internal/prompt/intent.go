package prompt

import (
	"regexp"
	"strconv"
	"strings"
)

// keywordFamily is one intent family: any of its keywords present triggers
// its fixed delta set.
type keywordFamily struct {
	name     string
	keywords []string
	deltas   map[string]float64
}

// cut_aggression, jank_guard, and story_coherence_guard sit on a [0,100]
// scale; their deltas below are sized an order of magnitude larger than
// the [0,2]-ish weight fields for the same reason.
func keywordFamilies() []keywordFamily {
	return []keywordFamily{
		{
			name:     "viral_fast",
			keywords: []string{"viral", "fast-paced", "fast paced", "faster", "punchy"},
			deltas: map[string]float64{
				"cut_aggression":              8,
				"pacing_multiplier":           0.1,
				"pattern_interrupt_every_sec": -1,
			},
		},
		{
			name:     "smooth_stable",
			keywords: []string{"smooth", "stable", "smoother", "gentle"},
			deltas: map[string]float64{
				"jank_guard":     12,
				"cut_aggression": -6,
			},
		},
		{
			name:     "story_narrative",
			keywords: []string{"story", "narrative", "storytelling"},
			deltas: map[string]float64{
				"story_coherence_guard": 12,
				"cut_aggression":        -4,
			},
		},
		{
			name:     "filler",
			keywords: []string{"filler", "um and uh", "verbal tics"},
			deltas: map[string]float64{
				"filler_tolerance_weight": -0.1,
			},
		},
		{
			name:     "redundancy",
			keywords: []string{"redundant", "redundancy", "repetitive"},
			deltas: map[string]float64{
				"redundancy_tolerance_weight": -0.1,
			},
		},
		{
			name:     "emotion_energy",
			keywords: []string{"emotion", "energy", "energetic", "emotional"},
			deltas: map[string]float64{
				"hook_priority_weight":   0.1,
				"energy_variance_target": 0.05,
			},
		},
		{
			name:     "more_silence",
			keywords: []string{"more silence", "keep the pauses", "keep pauses", "breathing room"},
			deltas: map[string]float64{
				"silence_min_ms": 150,
			},
		},
		{
			name:     "less_silence",
			keywords: []string{"less silence", "tighten silence", "no dead air", "remove pauses"},
			deltas: map[string]float64{
				"silence_min_ms": -150,
			},
		},
	}
}

// advancedModeMarkers are the "advanced mode-spec" keywords; at least two
// present trigger the platform-baseline + content-overlay + retention-tilt
// composition.
var advancedModeMarkers = []string{
	"platform modes",
	"content type modes",
	"best primary hook",
	"final recommendations",
}

var shortFormKeywords = []string{"tiktok", "reels", "shorts", "short-form", "short form"}
var longFormKeywords = []string{"youtube long-form", "long-form", "long form", "podcast"}

// intentProposal implements the prompt_intent strategy.
func intentProposal(prompt string) *proposal {
	lower := strings.ToLower(prompt)
	p := newProposal("prompt_intent")

	for _, family := range keywordFamilies() {
		for _, kw := range family.keywords {
			if strings.Contains(lower, kw) {
				for field, delta := range family.deltas {
					p.delta[field] += delta
					p.reason[field] = "prompt intent: " + family.name
				}
				break
			}
		}
	}

	if markerCount(lower) >= 2 {
		applyAdvancedModeSpec(lower, p)
	}

	return p
}

func markerCount(lower string) int {
	n := 0
	for _, marker := range advancedModeMarkers {
		if strings.Contains(lower, marker) {
			n++
		}
	}
	return n
}

var advancedCutRateRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-|to)?\s*(\d+(?:\.\d+)?)?\s*cuts?\s*per\s*minute`)

// applyAdvancedModeSpec composes a platform baseline, a content-type
// overlay, and a retention tilt into absolute targets for
// pattern_interrupt_every_sec, cut_aggression, and pacing_multiplier. The
// exact coefficients are self-designed; see DESIGN.md.
func applyAdvancedModeSpec(lower string, p *proposal) {
	shortForm := containsAny(lower, shortFormKeywords)
	longForm := containsAny(lower, longFormKeywords)
	if !shortForm && !longForm {
		shortForm = true // default to the more common short-form baseline
	}

	avgCutsPerMin := 6.0
	if m := advancedCutRateRe.FindStringSubmatch(lower); m != nil {
		lo, errLo := strconv.ParseFloat(m[1], 64)
		hi := lo
		if m[2] != "" {
			if v, err := strconv.ParseFloat(m[2], 64); err == nil {
				hi = v
			}
		}
		if errLo == nil {
			avgCutsPerMin = (lo + hi) / 2
		}
	}

	// retentionTilt and the cut_aggression baselines below are on the
	// field's native [0,100] scale, unlike pattern_interrupt_every_sec and
	// pacing_multiplier which stay on their own native ranges.
	retentionTilt := 0.0
	if strings.Contains(lower, "best primary hook") {
		retentionTilt = 5
	}

	if shortForm {
		p.absolute["pattern_interrupt_every_sec"] = clampRange(60/avgCutsPerMin, 2, 8)
		p.absolute["cut_aggression"] = clampRange(55+2*avgCutsPerMin+retentionTilt, 30, 95)
		p.absolute["pacing_multiplier"] = clampRange(1.1+0.01*avgCutsPerMin, 0.8, 1.6)
	} else {
		p.absolute["pattern_interrupt_every_sec"] = clampRange(60/avgCutsPerMin, 5, 20)
		p.absolute["cut_aggression"] = clampRange(35+1.5*avgCutsPerMin+retentionTilt, 20, 75)
		p.absolute["pacing_multiplier"] = clampRange(0.9+0.005*avgCutsPerMin, 0.7, 1.2)
	}
	for _, field := range []string{"pattern_interrupt_every_sec", "cut_aggression", "pacing_multiplier"} {
		p.reason[field] = "prompt intent: advanced mode-spec composition"
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
