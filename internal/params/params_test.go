package params

import "testing"

func TestParseClampsOutOfRangeFields(t *testing.T) {
	p, err := Parse(RawPatch{"cut_aggression": 500, "jank_guard": -50}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CutAggression != 100 {
		t.Errorf("cut_aggression = %v, want 100", p.CutAggression)
	}
	if p.JankGuard != 0 {
		t.Errorf("jank_guard = %v, want 0", p.JankGuard)
	}
}

func TestParseRoundsIntegerFields(t *testing.T) {
	p, err := Parse(RawPatch{"min_clip_len_ms": 900.6}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MinClipLenMs != 901 {
		t.Errorf("min_clip_len_ms = %v, want 901", p.MinClipLenMs)
	}
}

func TestParseEnforcesMinLessThanMax(t *testing.T) {
	p, err := Parse(RawPatch{"min_clip_len_ms": 20000, "max_clip_len_ms": 500}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MinClipLenMs > p.MaxClipLenMs {
		t.Errorf("min_clip_len_ms %v > max_clip_len_ms %v", p.MinClipLenMs, p.MaxClipLenMs)
	}
}

func TestParseRejectsOversizeSubtitleMode(t *testing.T) {
	long := make([]byte, 121)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Parse(nil, string(long), nil)
	if err == nil {
		t.Fatal("expected error for oversize subtitle_style_mode")
	}
}

func TestParseIsIdempotent(t *testing.T) {
	raw := RawPatch{"cut_aggression": 88.4, "jank_guard": 61}
	first, err := Parse(raw, "captions_off_requested", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	asRaw := RawPatch{}
	for _, name := range FieldNames() {
		v, _ := Get(&first, name)
		asRaw[name] = v
	}
	second, err := Parse(asRaw, first.SubtitleStyleMode, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("parse is not idempotent: %+v != %+v", first, second)
	}
}

func TestClampWeightsBoundsEachField(t *testing.T) {
	tooLow, tooHigh := -5.0, 99.0
	sw, scw := ClampWeights(
		&SegmentWeightOverrides{Energy: &tooLow, Filler: &tooHigh},
		&ScoringWeightOverrides{Hook: &tooLow, Jank: &tooHigh},
	)
	if *sw.Energy != 0.2 {
		t.Errorf("Energy = %v, want 0.2", *sw.Energy)
	}
	if *sw.Filler != 3.5 {
		t.Errorf("Filler = %v, want 3.5", *sw.Filler)
	}
	if *scw.Hook != 0.2 {
		t.Errorf("Hook = %v, want 0.2", *scw.Hook)
	}
	if *scw.Jank != 3.5 {
		t.Errorf("Jank = %v, want 3.5", *scw.Jank)
	}
}

func TestClampWeightsHandlesNil(t *testing.T) {
	sw, scw := ClampWeights(nil, nil)
	if sw != nil || scw != nil {
		t.Errorf("expected both nil, got %+v, %+v", sw, scw)
	}
}

func TestClampWeightsLeavesUnsetFieldsNil(t *testing.T) {
	v := 1.0
	sw, _ := ClampWeights(&SegmentWeightOverrides{Energy: &v}, nil)
	if sw.InfoDensity != nil {
		t.Errorf("expected InfoDensity to remain nil, got %v", *sw.InfoDensity)
	}
}

func TestDefaultParamsAreWithinBounds(t *testing.T) {
	d := DefaultParams()
	for _, name := range FieldNames() {
		v, _ := Get(&d, name)
		min, max, _, _ := Bounds(name)
		if v < min || v > max {
			t.Errorf("default %s = %v out of bounds [%v, %v]", name, v, min, max)
		}
	}
}
