package suggestions

// rule is one hard-coded threshold→delta proposal, keyed on a Summary field.
type rule struct {
	name      string
	triggered func(s Summary) bool
	changes   map[string]float64
	risk      string
	reason    string
}

// ruleSet extends the documented hook-failure rule to the other three
// failure-count dimensions (pacing, jank, story) using the same threshold
// shape, plus a fifth rule on the filler average. cut_aggression, jank_guard, and story_coherence_guard sit on a
// [0,100] scale, so their deltas here are sized an order of magnitude
// larger than the [0,2]-ish weight fields.
func ruleSet() []rule {
	return []rule{
		{
			name:      "low_hook",
			triggered: func(s Summary) bool { return s.AvgHook < 0.57 },
			changes: map[string]float64{
				"hook_priority_weight":       0.15,
				"pattern_interrupt_every_sec": -2,
			},
			risk:   "moderate: raises hook weight and cut frequency together",
			reason: "avg_hook below 0.57 threshold",
		},
		{
			name:      "low_pacing",
			triggered: func(s Summary) bool { return s.AvgPacing < 0.55 },
			changes: map[string]float64{
				"pacing_multiplier":          0.1,
				"pattern_interrupt_every_sec": -1.5,
			},
			risk:   "low: pacing nudges are small and reversible",
			reason: "avg_pacing below 0.55 threshold",
		},
		{
			name:      "high_jank",
			triggered: func(s Summary) bool { return s.AvgJank > 0.58 },
			changes: map[string]float64{
				"jank_guard":     8,
				"cut_aggression": -6,
			},
			risk:   "moderate: reduces cut aggression, may lower retention score elsewhere",
			reason: "avg_jank above 0.58 threshold",
		},
		{
			name:      "low_story",
			triggered: func(s Summary) bool { return s.AvgStory < 0.52 },
			changes: map[string]float64{
				"story_coherence_guard": 10,
				"cut_aggression":        -4,
			},
			risk:   "low: favors coherence over aggressive trimming",
			reason: "avg_story below 0.52 threshold",
		},
		{
			name:      "high_filler_tolerance",
			triggered: func(s Summary) bool { return s.AvgFiller < 0.5 },
			changes: map[string]float64{
				"filler_tolerance_weight": -0.1,
			},
			risk:   "low: tightens filler tolerance only",
			reason: "avg_filler below 0.5 threshold",
		},
	}
}
