package scoring

import (
	"testing"

	"retentionloop/internal/params"
	"retentionloop/internal/presets"
)

func syntheticAnalysis() Analysis {
	return Analysis{
		Duration: 42,
		EngagementWindows: []EngagementWindow{
			{Start: 0, End: 4, Score: 0.84},
			{Start: 4, End: 12, Score: 0.61},
			{Start: 12, End: 20, Score: 0.4},
			{Start: 20, End: 30, Score: 0.72},
			{Start: 30, End: 42, Score: 0.66},
		},
		SilenceRatio:    floatPtr(0.13),
		JumpCutSeverity: floatPtr(0.29),
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestE1SyntheticAnalysisScoresWithinBounds(t *testing.T) {
	res, err := Evaluate(syntheticAnalysis(), nil, nil, params.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ScoreTotal < 0 || res.ScoreTotal > 100 {
		t.Errorf("score_total = %v, want in [0,100]", res.ScoreTotal)
	}
	if len(res.Features.SegmentSignals) < 6 {
		t.Errorf("segment_signals length = %d, want >= 6", len(res.Features.SegmentSignals))
	}
}

func TestE2PresetsProduceAtLeastFourDistinctScores(t *testing.T) {
	seen := map[float64]bool{}
	for _, p := range presets.List() {
		res, err := Evaluate(syntheticAnalysis(), nil, nil, p.Params)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ScoreTotal < 0 || res.ScoreTotal > 100 {
			t.Errorf("preset %s: score_total = %v out of bounds", p.Name, res.ScoreTotal)
		}
		seen[res.ScoreTotal] = true
	}
	if len(seen) < 4 {
		t.Errorf("presets produced %d distinct scores, want >= 4", len(seen))
	}
}

func TestEvaluateIsPure(t *testing.T) {
	a := syntheticAnalysis()
	p := params.DefaultParams()
	r1, err := Evaluate(a, "hello there, this is a test", []any{}, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := Evaluate(a, "hello there, this is a test", []any{}, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r1.ScoreTotal != r2.ScoreTotal {
		t.Errorf("Evaluate not pure: %v != %v", r1.ScoreTotal, r2.ScoreTotal)
	}
}

func TestSubscoresWithinBounds(t *testing.T) {
	res, err := Evaluate(syntheticAnalysis(), nil, nil, params.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checks := map[string]float64{
		"hook": res.Subscores.Hook, "pacing": res.Subscores.Pacing,
		"energy": res.Subscores.Energy, "variety": res.Subscores.Variety,
		"story": res.Subscores.Story, "filler": res.Subscores.Filler,
		"jank": res.Subscores.Jank,
	}
	for name, v := range checks {
		if v < 0 || v > 1 {
			t.Errorf("subscore %s = %v, want in [0,1]", name, v)
		}
	}
}

func TestForcedKeepMinClipReason(t *testing.T) {
	p := params.DefaultParams()
	a := Analysis{
		Duration: 10,
		EngagementWindows: []EngagementWindow{
			{Start: 0, End: 10, Score: 0.5},
		},
	}
	cutList := []any{
		map[string]any{"start": 0.0, "end": 0.1},
	}
	res, err := Evaluate(a, nil, cutList, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, d := range res.Decisions {
		for _, r := range d.Reasons {
			if r == "forced_keep_min_clip" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected a decision with reason forced_keep_min_clip")
	}
}

func TestStoryCoherenceFloor(t *testing.T) {
	p := params.DefaultParams()
	p.StoryCoherenceGuard = 90
	a := Analysis{
		Duration: 10,
		EngagementWindows: []EngagementWindow{
			{Start: 0, End: 10, Score: 0.1},
		},
	}
	transcript := "this context earlier means something important because of that"
	cutList := []any{
		map[string]any{"start": 0.0, "end": 10.0},
	}
	res, err := Evaluate(a, transcript, cutList, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range res.Decisions {
		if d.IsContextSegment && d.KeepProbability < 0.63 {
			t.Errorf("context segment keep_probability = %v, want >= 0.63", d.KeepProbability)
		}
	}
}

func TestParamsBoundsRespected(t *testing.T) {
	p, err := params.Parse(nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CutAggression < 0 || p.CutAggression > 100 {
		t.Errorf("cut_aggression out of bounds: %v", p.CutAggression)
	}
}

func TestWithScoringWeightsChangesScoreTotal(t *testing.T) {
	a := syntheticAnalysis()
	p := params.DefaultParams()

	base, err := Evaluate(a, nil, nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	overridden, err := Evaluate(a, nil, nil, p, WithScoringWeights(ScoringWeights{
		Hook: 3.5, Pacing: 0.2, Energy: 0.2, Variety: 0.2, Story: 0.2, Filler: 0.2, Jank: 0.2,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.ScoreTotal == overridden.ScoreTotal {
		t.Error("WithScoringWeights override had no effect on score_total")
	}
}

func TestWithSegmentAndRiskWeightsChangeDecisions(t *testing.T) {
	a := syntheticAnalysis()
	p := params.DefaultParams()

	base, err := Evaluate(a, nil, nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	overridden, err := Evaluate(a, nil, nil, p,
		WithSegmentWeights(SegmentWeights{Energy: 3.5, InfoDensity: 3.5, Novelty: 3.5, Emotion: 3.5, Filler: 0.2, Redundancy: 0.2}),
		WithRiskWeights(RiskWeights{Continuity: 0.2, Context: 0.2, AudioJank: 0.2}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(base.Decisions) != len(overridden.Decisions) {
		t.Fatalf("decision count changed: %d vs %d", len(base.Decisions), len(overridden.Decisions))
	}
	changed := false
	for i := range base.Decisions {
		if base.Decisions[i].KeepProbability != overridden.Decisions[i].KeepProbability {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("WithSegmentWeights/WithRiskWeights override had no effect on keep_probability")
	}
}

func TestParamsScoringWeightsOverrideAppliesOnTopOfDefaults(t *testing.T) {
	a := syntheticAnalysis()
	p := params.DefaultParams()

	base, err := Evaluate(a, nil, nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hook := 3.5
	p.ScoringWeights = &params.ScoringWeightOverrides{Hook: &hook}
	overridden, err := Evaluate(a, nil, nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.ScoreTotal == overridden.ScoreTotal {
		t.Error("params.P.ScoringWeights override had no effect on score_total")
	}
}

func TestToleranceAndPriorityParamsAffectScoreTotal(t *testing.T) {
	a := syntheticAnalysis()
	p := params.DefaultParams()

	base, err := Evaluate(a, nil, nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.HookPriorityWeight = 2
	p.FillerToleranceWeight = 2
	p.RedundancyToleranceWeight = 2
	overridden, err := Evaluate(a, nil, nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.ScoreTotal == overridden.ScoreTotal {
		t.Error("hook_priority_weight/filler_tolerance_weight/redundancy_tolerance_weight had no effect on score_total")
	}
}

func TestDefaultToleranceParamsReproduceBitForBitDefaults(t *testing.T) {
	a := syntheticAnalysis()
	p := params.DefaultParams()

	withDefaults, err := Evaluate(a, nil, nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	explicitDefaults, err := Evaluate(a, nil, nil, p,
		WithSegmentWeights(DefaultSegmentWeights()),
		WithScoringWeights(DefaultScoringWeights()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withDefaults.ScoreTotal != explicitDefaults.ScoreTotal {
		t.Errorf("default-params score %v != explicit-default-weights score %v", withDefaults.ScoreTotal, explicitDefaults.ScoreTotal)
	}
}
