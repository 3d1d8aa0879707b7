package prompt

import (
	"context"
	"fmt"
	"testing"

	"retentionloop/internal/params"
)

func TestDirectiveAssignmentWins(t *testing.T) {
	tr := NewTranslator(nil, FallbackOptions{})
	result, err := tr.Apply(context.Background(), "cut_aggression = 88, make it smoother", params.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Params.CutAggression != 88 {
		t.Errorf("CutAggression = %v, want 88 (literal set-assignment wins)", result.Params.CutAggression)
	}
	base := params.DefaultParams()
	if result.Params.JankGuard <= base.JankGuard {
		t.Errorf("expected smoother intent to also raise JankGuard: %v -> %v", base.JankGuard, result.Params.JankGuard)
	}
	found := false
	for _, c := range result.Changes {
		if c.Key == "cut_aggression" && c.Next == 88 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a cut_aggression change to 88, got %+v", result.Changes)
	}
}

func TestDirectiveMaxSilence(t *testing.T) {
	tr := NewTranslator(nil, FallbackOptions{})
	result, err := tr.Apply(context.Background(), "max silence: 1.2s", params.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Params.SilenceMinMs != 1200 {
		t.Errorf("SilenceMinMs = %v, want 1200", result.Params.SilenceMinMs)
	}
}

func TestDirectiveCutsPerMinuteRange(t *testing.T) {
	tr := NewTranslator(nil, FallbackOptions{})
	result, err := tr.Apply(context.Background(), "aim for 4-6 cuts per minute", params.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 60.0 / 5.0
	if result.Params.PatternInterruptEverySec != want {
		t.Errorf("PatternInterruptEverySec = %v, want %v", result.Params.PatternInterruptEverySec, want)
	}
}

func TestIntentFallsThroughWhenNoDirectiveMatches(t *testing.T) {
	tr := NewTranslator(nil, FallbackOptions{})
	base := params.DefaultParams()
	result, err := tr.Apply(context.Background(), "make this more viral and fast-paced", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != "prompt_intent" {
		t.Errorf("Strategy = %s, want prompt_intent", result.Strategy)
	}
	if result.Params.CutAggression <= base.CutAggression {
		t.Errorf("CutAggression did not increase: %v -> %v", base.CutAggression, result.Params.CutAggression)
	}
}

func TestBaselineNudgeWhenNothingMatches(t *testing.T) {
	tr := NewTranslator(nil, FallbackOptions{})
	result, err := tr.Apply(context.Background(), "xyzzy plugh nothing relevant here", params.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != "baseline_nudge" {
		t.Errorf("Strategy = %s, want baseline_nudge", result.Strategy)
	}
	if len(result.Changes) == 0 {
		t.Error("expected baseline nudge to produce changes")
	}
}

func TestCaptionsOffDirectiveSetsModeAndWarns(t *testing.T) {
	tr := NewTranslator(nil, FallbackOptions{})
	result, err := tr.Apply(context.Background(), "turn captions off please", params.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Params.SubtitleStyleMode != "captions_off_requested" {
		t.Errorf("SubtitleStyleMode = %s, want captions_off_requested", result.Params.SubtitleStyleMode)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected a warning about the runtime caption toggle")
	}
}

func TestZeroMagnitudeChangesDiscarded(t *testing.T) {
	base := params.DefaultParams()
	base.CutAggression = params.Clamp("cut_aggression", 1e9) // pinned at max bound
	tr := NewTranslator(nil, FallbackOptions{})
	result, err := tr.Apply(context.Background(), fmt.Sprintf("cut_aggression = %v, jank_guard = 60", base.CutAggression), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range result.Changes {
		if c.Key == "cut_aggression" {
			t.Errorf("expected no-op cut_aggression change to be discarded, got %+v", c)
		}
	}
}
