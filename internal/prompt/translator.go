package prompt

import (
	"context"

	"retentionloop/internal/params"
)

// Translator implements apply(prompt, baseParams), falling back to C7 via
// source when configured.
type Translator struct {
	source   SuggestionSource
	fallback FallbackOptions
}

// NewTranslator builds a Translator. source may be nil, in which case
// suggestion_fallback always applies the deterministic baseline nudge.
func NewTranslator(source SuggestionSource, fallback FallbackOptions) *Translator {
	return &Translator{source: source, fallback: fallback}
}

// Apply runs the three strategies in priority order and finalizes the first
// one whose proposal is non-empty (a directive is merged with any intent).
// Zero-magnitude changes are discarded; if none remain, Apply returns
// ErrNotActionable without trying the lower-priority strategies.
func (t *Translator) Apply(ctx context.Context, prompt string, base params.P) (Result, error) {
	directive := directiveProposal(prompt)
	intent := intentProposal(prompt)

	if !directive.empty() {
		return t.finalize(base, mergeProposals(directive, intent))
	}
	if !intent.empty() {
		return t.finalize(base, intent)
	}

	fallback, err := fallbackProposal(ctx, t.source, t.fallback)
	if err != nil {
		return Result{}, err
	}
	return t.finalize(base, fallback)
}

// mergeProposals combines a higher-priority proposal with a lower-priority
// one: primary's explicit fields always win, but fields only the secondary
// proposal touches are still applied. This lets a literal set-assignment
// win while still reflecting an accompanying intent.
func mergeProposals(primary, secondary *proposal) *proposal {
	merged := newProposal(primary.source)
	mixed := false

	for k, v := range secondary.absolute {
		merged.absolute[k] = v
		merged.reason[k] = secondary.reason[k]
		mixed = true
	}
	for k, v := range secondary.delta {
		merged.delta[k] = v
		merged.reason[k] = secondary.reason[k]
		mixed = true
	}

	for k, v := range primary.absolute {
		delete(merged.delta, k)
		merged.absolute[k] = v
		merged.reason[k] = primary.reason[k]
	}
	for k, v := range primary.delta {
		merged.delta[k] = v
		merged.reason[k] = primary.reason[k]
	}

	if primary.subtitle != "" {
		merged.subtitle = primary.subtitle
		merged.warnings = primary.warnings
	} else {
		merged.subtitle = secondary.subtitle
		merged.warnings = secondary.warnings
	}

	if mixed {
		merged.source = "mixed"
	}
	return merged
}

// finalize resolves a proposal's absolute/delta fields against base
// through the shared clamp+round path, discards zero-magnitude changes,
// and builds the audit trail.
func (t *Translator) finalize(base params.P, p *proposal) (Result, error) {
	out := base
	var changes []Change

	fields := map[string]bool{}
	for k := range p.absolute {
		fields[k] = true
	}
	for k := range p.delta {
		fields[k] = true
	}

	for field := range fields {
		previous, ok := params.Get(&out, field)
		if !ok {
			continue
		}
		target := previous
		if v, ok := p.absolute[field]; ok {
			target = v
		}
		if d, ok := p.delta[field]; ok {
			target += d
		}
		clamped := params.Clamp(field, target)

		delta := clamped - previous
		if delta == 0 {
			continue
		}
		params.Set(&out, field, clamped)

		reason := p.reason[field]
		if reason == "" {
			reason = p.source
		}
		changes = append(changes, Change{
			Key:      field,
			Previous: previous,
			Next:     clamped,
			Delta:    delta,
			Source:   p.source,
			Reason:   reason,
		})
	}

	if p.subtitle != "" && p.subtitle != base.SubtitleStyleMode {
		out.SubtitleStyleMode = p.subtitle
	}

	if len(changes) == 0 && (p.subtitle == "" || p.subtitle == base.SubtitleStyleMode) {
		return Result{}, ErrNotActionable{}
	}

	return Result{
		Strategy: p.source,
		Params:   out,
		Changes:  changes,
		Warnings: p.warnings,
	}, nil
}
