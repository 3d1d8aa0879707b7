package presets

import "testing"

func TestListHasAtLeastSixEntries(t *testing.T) {
	if got := len(List()); got < 6 {
		t.Fatalf("List() returned %d presets, want >= 6", got)
	}
}

func TestListHasAtLeastFourDistinctCutAggressionValues(t *testing.T) {
	seen := map[float64]bool{}
	for _, p := range List() {
		seen[p.Params.CutAggression] = true
	}
	if len(seen) < 4 {
		t.Fatalf("presets have %d distinct cut_aggression values, want >= 4", len(seen))
	}
}

func TestDefaultIsPremiumCreatorMode(t *testing.T) {
	if Default().Name != DefaultPresetName {
		t.Fatalf("Default().Name = %q, want %q", Default().Name, DefaultPresetName)
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	_, ok := Get("VIRAL_MODE")
	if !ok {
		t.Fatal("Get should be case-insensitive")
	}
}

func TestGetUnknownReturnsFalse(t *testing.T) {
	_, ok := Get("not_a_preset")
	if ok {
		t.Fatal("expected ok=false for unknown preset")
	}
}
