package prompt

// aliases maps each numeric param to the words a prompt might use to name
// it, longest-first so "pattern interrupt every" matches before a
// shorter substring would.
var aliases = map[string][]string{
	"cut_aggression":              {"cut aggression", "cut_aggression", "aggression"},
	"jank_guard":                  {"jank guard", "jank_guard"},
	"story_coherence_guard":       {"story coherence guard", "story coherence", "coherence guard"},
	"min_clip_len_ms":             {"min clip length", "min clip len", "minimum clip length"},
	"max_clip_len_ms":             {"max clip length", "max clip len", "maximum clip length"},
	"silence_min_ms":              {"silence minimum", "min silence", "minimum silence", "silence"},
	"pattern_interrupt_every_sec": {"pattern interrupt every", "pattern interrupt", "cut interval"},
	"pacing_multiplier":           {"pacing multiplier", "pacing"},
	"hook_priority_weight":        {"hook priority weight", "hook priority", "hook weight"},
	"filler_tolerance_weight":     {"filler tolerance weight", "filler tolerance"},
	"redundancy_tolerance_weight": {"redundancy tolerance weight", "redundancy tolerance"},
	"energy_variance_target":      {"energy variance target", "energy variance"},
	"caption_desync_tolerance_ms": {"caption desync tolerance", "caption desync"},
	"shot_length_target_sec":      {"shot length target", "shot length"},
}

// subtitleModeKeywords maps a prompt keyword to a subtitle_style_mode
// value, used by the directive strategy's "plus subtitle-mode assignment".
var subtitleModeKeywords = map[string]string{
	"captions off":       "captions_off_requested",
	"burned-in captions": "burned_in",
	"burned in captions": "burned_in",
	"karaoke captions":   "karaoke",
	"karaoke style":      "karaoke",
	"minimal captions":   "minimal",
	"no captions":        "captions_off_requested",
}

// subtitleModeWarnings carries a warning to surface alongside a subtitle
// mode assignment, for modes that need an operator's attention beyond the
// stored param (captions_off_requested only flips this config's intent;
// the render pipeline's runtime caption toggle must be disabled separately).
var subtitleModeWarnings = map[string]string{
	"captions_off_requested": "subtitle_style_mode set to captions_off_requested; the runtime caption toggle must still be disabled separately for captions to actually stop rendering",
}
