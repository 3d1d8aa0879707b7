package scoring

import (
	"strings"
)

// NormalizeTranscript collapses the string / array / nested-object variants
// a transcript payload can arrive in into a canonical cue list. Nothing is
// rejected; unrecognized shapes degrade to a best-effort single cue.
func NormalizeTranscript(raw any) []TranscriptCue {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return []TranscriptCue{{Start: 0, End: 0, Text: s}}
	case []TranscriptCue:
		return v
	case []any:
		out := make([]TranscriptCue, 0, len(v))
		for _, item := range v {
			out = append(out, normalizeTranscriptItem(item)...)
		}
		return out
	case map[string]any:
		if segs, ok := v["segments"].([]any); ok {
			return NormalizeTranscript(segs)
		}
		if segs, ok := v["cues"].([]any); ok {
			return NormalizeTranscript(segs)
		}
		if text, ok := v["text"].(string); ok {
			return NormalizeTranscript(text)
		}
		return nil
	default:
		return nil
	}
}

func normalizeTranscriptItem(item any) []TranscriptCue {
	switch it := item.(type) {
	case string:
		return NormalizeTranscript(it)
	case map[string]any:
		cue := TranscriptCue{}
		cue.Start = numField(it, "start", "from", "begin")
		cue.End = numField(it, "end", "to", "finish")
		if t, ok := it["text"].(string); ok {
			cue.Text = t
		} else if t, ok := it["word"].(string); ok {
			cue.Text = t
		}
		if cue.Text == "" && cue.Start == 0 && cue.End == 0 {
			return nil
		}
		return []TranscriptCue{cue}
	default:
		return nil
	}
}

func numField(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return 0
}

// NormalizeCutList resolves the effective segment list for scoring: cut_list
// if present, else analysis.editPlan.segments, else auto-chunked buckets
// covering the resolved duration. Resolution always runs against the final
// duration (single pass; see DESIGN.md §Open Question 2).
func NormalizeCutList(cutList any, editPlanSegments []RawSegment, durationSec float64) ([]RawSegment, bool) {
	if segs := normalizeRawSegments(cutList); len(segs) > 0 {
		return segs, true
	}
	if len(editPlanSegments) > 0 {
		return editPlanSegments, true
	}
	return autoChunk(durationSec), false
}

func normalizeRawSegments(raw any) []RawSegment {
	items, ok := raw.([]any)
	if !ok {
		if segs, ok := raw.([]RawSegment); ok {
			return segs
		}
		return nil
	}
	out := make([]RawSegment, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, RawSegment{
			Start: numField(m, "start", "from"),
			End:   numField(m, "end", "to"),
		})
	}
	return out
}

func autoChunk(durationSec float64) []RawSegment {
	if durationSec <= 0 {
		durationSec = minDurationSeconds
	}
	n := autoChunkCount
	bucket := durationSec / float64(n)
	if bucket < minSegmentSeconds {
		bucket = minSegmentSeconds
		n = int(durationSec / bucket)
		if n < 1 {
			n = 1
		}
	}
	if bucket > maxSegmentSeconds {
		bucket = maxSegmentSeconds
		n = int(durationSec/bucket) + 1
	}
	out := make([]RawSegment, 0, n)
	t := 0.0
	for i := 0; i < n && t < durationSec; i++ {
		end := t + bucket
		if end > durationSec || i == n-1 {
			end = durationSec
		}
		out = append(out, RawSegment{Start: t, End: end})
		t = end
	}
	return out
}

// ResolveDuration picks the first positive of analysis.duration, metadata
// duration, or the max segment end, clamped to [1, 6h].
func ResolveDuration(a Analysis, cutListMaxEnd float64) float64 {
	d := a.Duration
	if d <= 0 {
		d = a.MetadataDuration
	}
	if d <= 0 {
		d = cutListMaxEnd
	}
	if d < minDurationSeconds {
		d = minDurationSeconds
	}
	if d > maxDurationSeconds {
		d = maxDurationSeconds
	}
	return d
}

func maxSegmentEnd(segs []RawSegment) float64 {
	max := 0.0
	for _, s := range segs {
		if s.End > max {
			max = s.End
		}
	}
	return max
}
