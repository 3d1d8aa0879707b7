package feedback

import "retentionloop/internal/jobs"

// signalWeights are the eight outcome-signal weights in the documented
// order: watch%, hook-hold%, completion%, CTR, shares/likes/comments per
// view, manual score, first-30s retention, model retention.
var signalWeights = [8]float64{0.28, 0.21, 0.12, 0.14, 0.08, 0.05, 0.08, 0.04}

// extractOutcome computes the weighted-mean outcome for one completed job's
// retention_feedback bundle, renormalizing weights over whichever signals
// are present. Returns ok=false when no signal is present at all.
func extractOutcome(job jobs.Job) (Outcome, bool) {
	bundle := job.RetentionFeedback
	if bundle == nil {
		return Outcome{}, false
	}

	raw := [8]*float64{
		numPtr(bundle, "watch_percent", "watch_pct"),
		numPtr(bundle, "hook_hold_percent", "hook_hold_pct"),
		numPtr(bundle, "completion_percent", "completion_pct"),
		numPtr(bundle, "ctr"),
		socialPerView(bundle),
		numPtr(bundle, "manual_score"),
		numPtr(bundle, "first_30s_retention"),
		numPtr(bundle, "model_retention"),
	}

	var weightedSum, weightSum float64
	var present int
	for i, v := range raw {
		if v == nil {
			continue
		}
		val := normalizePercent(*v)
		weightedSum += signalWeights[i] * val
		weightSum += signalWeights[i]
		present++
	}
	if present == 0 || weightSum == 0 {
		return Outcome{}, false
	}

	o := Outcome{
		JobID:      job.ID,
		Value:      weightedSum / weightSum,
		HookHold:   normalizedPtr(raw[1]),
		Completion: normalizedPtr(raw[2]),
		EditorMode: strField(bundle, "editor_mode"),
		Strategy:   strField(bundle, "strategy"),
		Platform:   strField(bundle, "platform"),
	}
	return o, true
}

func normalizedPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n := normalizePercent(*v)
	return &n
}

// normalizePercent treats values above 1 as percentages (divides by 100).
func normalizePercent(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

func socialPerView(m map[string]any) *float64 {
	keys := []string{"shares_per_view", "likes_per_view", "comments_per_view"}
	var sum float64
	var n int
	for _, k := range keys {
		if v := numPtr(m, k); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func numPtr(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		}
	}
	return nil
}

func strField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
