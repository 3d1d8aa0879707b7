// Package prompt implements apply(prompt, baseParams): translate a
// free-text operator prompt into a parameter delta via three strategies,
// tried in priority order.
package prompt

import "retentionloop/internal/params"

// Change is one audited parameter write.
type Change struct {
	Key      string  `json:"key"`
	Previous float64 `json:"previous"`
	Next     float64 `json:"next"`
	Delta    float64 `json:"delta"`
	Source   string  `json:"source"`
	Reason   string  `json:"reason"`
}

// Result is apply()'s return value.
type Result struct {
	Strategy string   `json:"strategy"`
	Params   params.P `json:"params"`
	Changes  []Change `json:"changes"`
	Warnings []string `json:"warnings,omitempty"`
}

// ErrNotActionable is returned when no strategy produces any change.
type ErrNotActionable struct{}

func (ErrNotActionable) Error() string { return "prompt_not_actionable" }

// proposal is an intermediate {key: target-or-delta} map a strategy
// produces before the shared clamp+round+audit path runs.
type proposal struct {
	absolute map[string]float64 // field -> target value
	delta    map[string]float64 // field -> delta to add to current value
	subtitle string             // non-empty to set SubtitleStyleMode
	source   string
	reason   map[string]string // per-field reason override
	warnings []string
}

func newProposal(source string) *proposal {
	return &proposal{
		absolute: map[string]float64{},
		delta:    map[string]float64{},
		reason:   map[string]string{},
		source:   source,
	}
}

func (p *proposal) empty() bool {
	return len(p.absolute) == 0 && len(p.delta) == 0 && p.subtitle == ""
}
