package prompt

import (
	"context"

	"retentionloop/internal/suggestions"
)

// SuggestionSource is the narrow contract fallbackProposal needs from C7.
type SuggestionSource interface {
	Analyze(ctx context.Context, limit int, rng suggestions.Range) (suggestions.Report, error)
}

// FallbackOptions configures the suggestion_fallback strategy's call into
// C7.
type FallbackOptions struct {
	Limit int
	Range suggestions.Range
}

// fallbackProposal implements suggestion_fallback: invoke C7 and apply its
// top suggestion, or a deterministic baseline nudge if C7 returns nothing.
func fallbackProposal(ctx context.Context, source SuggestionSource, opts FallbackOptions) (*proposal, error) {
	if source != nil {
		report, err := source.Analyze(ctx, opts.Limit, opts.Range)
		if err == nil && len(report.Suggestions) > 0 {
			top := report.Suggestions[0]
			if len(top.Changes) > 0 {
				p := newProposal("suggestion_fallback")
				for field, delta := range top.Changes {
					p.delta[field] = delta
					p.reason[field] = "suggestion fallback: " + top.Reason
				}
				return p, nil
			}
		}
	}

	p := newProposal("baseline_nudge")
	p.delta["hook_priority_weight"] = 0.05
	p.delta["cut_aggression"] = -4
	p.delta["jank_guard"] = 4
	for field := range p.delta {
		p.reason[field] = "deterministic baseline nudge: no directive, intent, or suggestion matched"
	}
	return p, nil
}
