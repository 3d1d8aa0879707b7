// Package presets enumerates the named parameter bundles operators can
// apply as a starting point for a config version.
package presets

import (
	"strings"

	"retentionloop/internal/params"
)

// Preset is a named, read-only parameter bundle.
type Preset struct {
	Name   string
	Params params.P
}

// DefaultPresetName is materialized when the system has never been
// configured before.
const DefaultPresetName = "premium_creator_mode"

var table = buildTable()

func buildTable() map[string]Preset {
	base := params.DefaultParams()

	mk := func(name string, patch params.RawPatch, subtitleMode string) Preset {
		p, err := params.Parse(patch, subtitleMode, &base)
		if err != nil {
			// Built-in bundles are constants; a parse failure here is a
			// programming error, not a runtime condition.
			panic("presets: invalid built-in bundle " + name + ": " + err.Error())
		}
		return Preset{Name: name, Params: p}
	}

	entries := []Preset{
		mk("viral_mode", params.RawPatch{
			"cut_aggression":              78,
			"jank_guard":                  38,
			"story_coherence_guard":       30,
			"min_clip_len_ms":             500,
			"max_clip_len_ms":             6000,
			"pattern_interrupt_every_sec": 4,
			"pacing_multiplier":           1.6,
			"hook_priority_weight":        1.6,
		}, "auto"),
		mk("hyper_cut_mode", params.RawPatch{
			"cut_aggression":              92,
			"jank_guard":                  25,
			"story_coherence_guard":       15,
			"min_clip_len_ms":             350,
			"max_clip_len_ms":             4000,
			"pattern_interrupt_every_sec": 2.5,
			"pacing_multiplier":           2.1,
			"hook_priority_weight":        1.4,
		}, "auto"),
		mk("story_mode", params.RawPatch{
			"cut_aggression":              22,
			"jank_guard":                  70,
			"story_coherence_guard":       88,
			"min_clip_len_ms":             1500,
			"max_clip_len_ms":             20000,
			"pattern_interrupt_every_sec": 18,
			"pacing_multiplier":           0.75,
			"hook_priority_weight":        0.8,
		}, "full"),
		mk("psychological_hook_mode", params.RawPatch{
			"cut_aggression":              58,
			"jank_guard":                  48,
			"story_coherence_guard":       55,
			"min_clip_len_ms":             700,
			"max_clip_len_ms":             9000,
			"pattern_interrupt_every_sec": 6,
			"pacing_multiplier":           1.25,
			"hook_priority_weight":        1.9,
		}, "auto"),
		mk("cinematic_mode", params.RawPatch{
			"cut_aggression":              12,
			"jank_guard":                  82,
			"story_coherence_guard":       75,
			"min_clip_len_ms":             2200,
			"max_clip_len_ms":             30000,
			"pattern_interrupt_every_sec": 25,
			"pacing_multiplier":           0.6,
			"hook_priority_weight":        0.7,
			"shot_length_target_sec":      5.5,
		}, "full"),
		mk("premium_creator_mode", params.RawPatch{
			"cut_aggression":              42,
			"jank_guard":                  55,
			"story_coherence_guard":       60,
		}, "auto"),
	}

	out := make(map[string]Preset, len(entries))
	for _, e := range entries {
		out[e.Name] = e
	}
	return out
}

// Get looks up a preset by name, case-insensitively. ok is false for
// unknown keys.
func Get(name string) (Preset, bool) {
	p, ok := table[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Default returns the system default preset.
func Default() Preset {
	p, ok := table[DefaultPresetName]
	if !ok {
		panic("presets: default preset missing from table")
	}
	return p
}

// List returns every preset, in a stable order.
func List() []Preset {
	order := []string{
		"viral_mode",
		"hyper_cut_mode",
		"story_mode",
		"psychological_hook_mode",
		"cinematic_mode",
		"premium_creator_mode",
	}
	out := make([]Preset, 0, len(order))
	for _, name := range order {
		if p, ok := table[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
