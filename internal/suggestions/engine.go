package suggestions

import (
	"context"
	"math"
	"sort"
	"sync"

	"retentionloop/internal/metricsrecorder"
	"retentionloop/internal/params"
)

// MetricSource supplies recent render-quality metrics.
type MetricSource interface {
	ListRecent(ctx context.Context, limit int) ([]metricsrecorder.Metric, error)
}

// ParamsResolver resolves a config-version id to the params that produced
// it, satisfied by configstore.ParamsResolver.
type ParamsResolver interface {
	ParamsByID(ctx context.Context, id string) (params.P, error)
}

// Engine implements analyze(limit, range).
type Engine struct {
	metrics MetricSource
	configs ParamsResolver

	mu    sync.Mutex
	cache map[string]params.P
}

// NewEngine builds an Engine over the given sources.
func NewEngine(metrics MetricSource, configs ParamsResolver) *Engine {
	return &Engine{metrics: metrics, configs: configs, cache: map[string]params.P{}}
}

func (e *Engine) resolveParams(ctx context.Context, configVersionID string) (params.P, error) {
	e.mu.Lock()
	if p, ok := e.cache[configVersionID]; ok {
		e.mu.Unlock()
		return p, nil
	}
	e.mu.Unlock()

	p, err := e.configs.ParamsByID(ctx, configVersionID)
	if err != nil {
		return params.P{}, err
	}
	e.mu.Lock()
	e.cache[configVersionID] = p
	e.mu.Unlock()
	return p, nil
}

// Analyze fetches up to limit recent metrics within rng, computes the
// dimension summary and per-param correlations, and returns the top five
// ranked suggestions.
func (e *Engine) Analyze(ctx context.Context, limit int, rng Range) (Report, error) {
	metrics, err := e.metrics.ListRecent(ctx, limit)
	if err != nil {
		return Report{}, err
	}

	rows := make([]Row, 0, len(metrics))
	for _, m := range metrics {
		if !rng.Since.IsZero() && m.CreatedAt.Before(rng.Since) {
			continue
		}
		if !rng.Until.IsZero() && m.CreatedAt.After(rng.Until) {
			continue
		}
		p, err := e.resolveParams(ctx, m.ConfigVersionID)
		if err != nil {
			continue
		}
		rows = append(rows, Row{Metric: m, Params: p})
	}

	summary := computeSummary(rows)

	correlations, err := correlateAll(ctx, rows)
	if err != nil {
		return Report{}, err
	}

	suggestions := []Suggestion{}
	for _, r := range ruleSet() {
		if !r.triggered(summary) {
			continue
		}
		suggestions = append(suggestions, buildSuggestion(r, summary, correlations))
	}

	if rollback, ok := rollbackSuggestion(rows); ok {
		suggestions = append(suggestions, rollback)
	}

	rankSuggestions(suggestions)
	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}

	return Report{
		Summary:      summary,
		Correlations: correlations,
		Suggestions:  suggestions,
	}, nil
}

func computeSummary(rows []Row) Summary {
	s := Summary{N: len(rows)}
	if len(rows) == 0 {
		return s
	}

	var scores []float64
	var hook, pacing, emotion, visual, story, filler, jank float64
	for _, row := range rows {
		m := row.Metric
		scores = append(scores, m.ScoreTotal)
		hook += m.ScoreHook
		pacing += m.ScorePacing
		emotion += m.ScoreEmotion
		visual += m.ScoreVisual
		story += m.ScoreStory
		filler += m.ScoreFiller
		jank += m.ScoreJank

		if m.ScoreHook < 0.5 {
			s.HookFailures++
		}
		if m.ScorePacing < 0.5 {
			s.PacingFailures++
		}
		if m.ScoreJank > 0.58 {
			s.JankFailures++
		}
		if m.ScoreStory < 0.52 {
			s.StoryFailures++
		}
	}

	n := float64(len(rows))
	s.AvgHook = hook / n
	s.AvgPacing = pacing / n
	s.AvgEmotion = emotion / n
	s.AvgVisual = visual / n
	s.AvgStory = story / n
	s.AvgFiller = filler / n
	s.AvgJank = jank / n

	mean, stdev := meanStdev(scores)
	s.AvgScoreTotal = mean
	s.ScoreStdev = stdev
	return s
}

// buildSuggestion scales the rule's proposed deltas by the correlation of
// each changed param against score_total.
func buildSuggestion(r rule, summary Summary, correlations []Correlation) Suggestion {
	scoreStdComponent := math.Max(summary.ScoreStdev, 4.2)

	var sum, absRSum float64
	var matched int
	for name, delta := range r.changes {
		c, ok := findCorrelation(correlations, name)
		if !ok || c.Stdev == 0 {
			continue
		}
		sign := 1.0
		if delta < 0 {
			sign = -1.0
		}
		sum += c.R * sign * (math.Abs(delta) / c.Stdev)
		absRSum += math.Abs(c.R)
		matched++
	}

	predicted := clamp(sum*scoreStdComponent*0.72, -18, 18)

	confidence := 0.25
	if matched > 0 {
		avgAbsR := absRSum / float64(matched)
		sampleSignal := math.Log10(float64(summary.N)+1) / 2.4
		confidence = clamp(0.25+0.75*avgAbsR*sampleSignal, 0, 1)
	}

	return Suggestion{
		Type:                "param_delta",
		Changes:             r.changes,
		PredictedDeltaScore: predicted,
		Confidence:          confidence,
		Risk:                r.risk,
		Reason:              r.reason,
	}
}

// rollbackSuggestion compares the two most recent distinct config versions
// by average score_total, emitting a synthetic rollback suggestion when the
// newest underperforms by >=2.5 points and both have >=5 samples.
func rollbackSuggestion(rows []Row) (Suggestion, bool) {
	sorted := append([]Row(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Metric.CreatedAt.After(sorted[j].Metric.CreatedAt)
	})

	order := []string{}
	seen := map[string]bool{}
	byVersion := map[string][]float64{}
	for _, row := range sorted {
		id := row.Metric.ConfigVersionID
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
		byVersion[id] = append(byVersion[id], row.Metric.ScoreTotal)
	}
	if len(order) < 2 {
		return Suggestion{}, false
	}

	newest, previous := order[0], order[1]
	newestScores, prevScores := byVersion[newest], byVersion[previous]
	if len(newestScores) < 5 || len(prevScores) < 5 {
		return Suggestion{}, false
	}

	newestMean, _ := meanStdev(newestScores)
	prevMean, _ := meanStdev(prevScores)
	if prevMean-newestMean < 2.5 {
		return Suggestion{}, false
	}

	return Suggestion{
		Type:                "rollback_to_config_version",
		TargetConfigVersion: previous,
		PredictedDeltaScore: prevMean - newestMean,
		Confidence:          0.8,
		Risk:                "low: reverts to a previously-observed-good version",
		Reason:              "current config underperforms previous by >= 2.5 points",
	}, true
}

// rankSuggestions orders by predicted delta desc, then confidence desc,
// then risk-text length desc.
func rankSuggestions(s []Suggestion) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].PredictedDeltaScore != s[j].PredictedDeltaScore {
			return s[i].PredictedDeltaScore > s[j].PredictedDeltaScore
		}
		if s[i].Confidence != s[j].Confidence {
			return s[i].Confidence > s[j].Confidence
		}
		return len(s[i].Risk) > len(s[j].Risk)
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
