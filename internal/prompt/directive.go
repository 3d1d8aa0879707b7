package prompt

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	increaseWords = []string{"increase", "raise", "bump up", "bump", "boost"}
	decreaseWords = []string{"decrease", "lower", "reduce", "cut down", "drop"}

	maxSilenceRe   = regexp.MustCompile(`(?i)max(?:imum)?\s*silence\s*:?\s*(\d+(?:\.\d+)?)\s*s?`)
	cutsPerMinRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)\s*cuts?\s*per\s*minute`)
	singleCutRateRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*cuts?\s*per\s*minute`)
	numberRe       = `(-?\d+(?:\.\d+)?)`
)

// directiveProposal implements the prompt_directive strategy: per-field
// regex extraction of `<alias> (=|:|to) <num>` or
// `(increase|decrease|...) <alias> by? <num>`, plus two explicit targets
// (max silence, cuts per minute) and subtitle-mode keyword assignment.
func directiveProposal(prompt string) *proposal {
	p := newProposal("prompt_directive")
	lower := strings.ToLower(prompt)

	for field, names := range aliases {
		for _, alias := range names {
			if v, ok := matchAssignment(lower, alias); ok {
				p.absolute[field] = v
				p.reason[field] = "prompt directive: " + alias + " = " + strconv.FormatFloat(v, 'f', -1, 64)
				break
			}
			if v, ok := matchDelta(lower, alias, increaseWords, 1); ok {
				p.delta[field] += v
				p.reason[field] = "prompt directive: increase " + alias
			}
			if v, ok := matchDelta(lower, alias, decreaseWords, -1); ok {
				p.delta[field] += v
				p.reason[field] = "prompt directive: decrease " + alias
			}
		}
	}

	if m := maxSilenceRe.FindStringSubmatch(lower); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.absolute["silence_min_ms"] = secs * 1000
			p.reason["silence_min_ms"] = "prompt directive: max silence " + m[1] + "s"
		}
	}

	if m := cutsPerMinRe.FindStringSubmatch(lower); m != nil {
		lo, errLo := strconv.ParseFloat(m[1], 64)
		hi, errHi := strconv.ParseFloat(m[2], 64)
		if errLo == nil && errHi == nil && (lo+hi) > 0 {
			avg := (lo + hi) / 2
			p.absolute["pattern_interrupt_every_sec"] = 60 / avg
			p.reason["pattern_interrupt_every_sec"] = "prompt directive: cuts per minute range"
		}
	} else if m := singleCutRateRe.FindStringSubmatch(lower); m != nil {
		if rate, err := strconv.ParseFloat(m[1], 64); err == nil && rate > 0 {
			p.absolute["pattern_interrupt_every_sec"] = 60 / rate
			p.reason["pattern_interrupt_every_sec"] = "prompt directive: cuts per minute"
		}
	}

	for keyword, mode := range subtitleModeKeywords {
		if strings.Contains(lower, keyword) {
			p.subtitle = mode
			if w, ok := subtitleModeWarnings[mode]; ok {
				p.warnings = append(p.warnings, w)
			}
			break
		}
	}

	return p
}

// matchAssignment looks for "<alias> (=|:|to) <num>".
func matchAssignment(text, alias string) (float64, bool) {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(alias) + `\s*(?:=|:|to)\s*` + numberRe)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return v, err == nil
}

// matchDelta looks for "(increase|decrease|...) <alias> by? <num>" and
// returns the signed delta.
func matchDelta(text, alias string, verbs []string, sign float64) (float64, bool) {
	for _, verb := range verbs {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(verb) + `\s+` + regexp.QuoteMeta(alias) + `\s*(?:by)?\s*` + numberRe)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return sign * v, true
	}
	return 0, false
}
