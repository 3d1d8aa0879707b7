package metricsrecorder

import (
	"context"
	"fmt"

	"retentionloop/internal/jobs"
	"retentionloop/internal/params"
	"retentionloop/internal/scoring"
)

// ParamsResolver is the narrow contract Recorder needs from
// internal/configstore: look up a version's params by id, or the active
// version's params when no id resolves.
type ParamsResolver interface {
	ParamsByID(ctx context.Context, id string) (params.P, error)
	ActiveID(ctx context.Context) (string, error)
}

// Recorder implements record(job): resolve config version, evaluate
// scoring, persist, degrade to ring on failure.
type Recorder struct {
	store    Store
	resolver ParamsResolver
}

// NewRecorder builds a Recorder. store should normally be wrapped with
// NewDegradingStore unless it is already a Ring.
func NewRecorder(store Store, resolver ParamsResolver) *Recorder {
	return &Recorder{store: store, resolver: resolver}
}

// resolveConfigVersionID implements the documented fallback order:
// job.config_version_id, render_settings.algorithm_config_version_id,
// analysis.algorithm_config_version_id, active version.
func (r *Recorder) resolveConfigVersionID(ctx context.Context, job jobs.Job) (string, error) {
	if job.ConfigVersionID != "" {
		return job.ConfigVersionID, nil
	}
	if id, ok := stringField(job.RenderSettings, "algorithm_config_version_id"); ok {
		return id, nil
	}
	if id, ok := stringField(job.Analysis, "algorithm_config_version_id"); ok {
		return id, nil
	}
	return r.resolver.ActiveID(ctx)
}

func stringField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Record evaluates the scoring engine against job and persists the
// resulting metric, degrading to an in-memory ring on persistence
// failure but always returning the computed payload.
func (r *Recorder) Record(ctx context.Context, job jobs.Job) (Metric, error) {
	configVersionID, err := r.resolveConfigVersionID(ctx, job)
	if err != nil {
		return Metric{}, fmt.Errorf("metricsrecorder: resolve config version: %w", err)
	}

	p, err := r.resolver.ParamsByID(ctx, configVersionID)
	if err != nil {
		return Metric{}, fmt.Errorf("metricsrecorder: load params: %w", err)
	}

	analysis := analysisFromJob(job)
	var transcript, cutList any
	if job.RenderSettings != nil {
		transcript = job.RenderSettings["transcript"]
		cutList = job.RenderSettings["cutList"]
	}

	result, err := scoring.Evaluate(analysis, transcript, cutList, p)
	if err != nil {
		return Metric{}, fmt.Errorf("metricsrecorder: evaluate: %w", err)
	}

	metric := fromResult(job.ID, job.UserID, configVersionID, result)
	inserted, err := r.store.Insert(ctx, metric)
	if err != nil {
		return Metric{}, fmt.Errorf("metricsrecorder: insert: %w", err)
	}
	return inserted, nil
}

// Preview evaluates the scoring engine against job the same way Record does,
// without inserting a row. Used by the sample-footage test route to let an
// operator try a config version against a real job without producing a
// persisted metric.
func (r *Recorder) Preview(ctx context.Context, job jobs.Job, configVersionIDOverride string) (scoring.Result, string, error) {
	configVersionID := configVersionIDOverride
	var err error
	if configVersionID == "" {
		configVersionID, err = r.resolveConfigVersionID(ctx, job)
		if err != nil {
			return scoring.Result{}, "", fmt.Errorf("metricsrecorder: resolve config version: %w", err)
		}
	}

	p, err := r.resolver.ParamsByID(ctx, configVersionID)
	if err != nil {
		return scoring.Result{}, "", fmt.Errorf("metricsrecorder: load params: %w", err)
	}

	analysis := analysisFromJob(job)
	var transcript, cutList any
	if job.RenderSettings != nil {
		transcript = job.RenderSettings["transcript"]
		cutList = job.RenderSettings["cutList"]
	}

	result, err := scoring.Evaluate(analysis, transcript, cutList, p)
	if err != nil {
		return scoring.Result{}, "", fmt.Errorf("metricsrecorder: evaluate: %w", err)
	}
	return result, configVersionID, nil
}

// analysisFromJob extracts the scoring.Analysis payload from the job's
// loosely-typed analysis bundle, tolerating missing fields per C3's
// documented fallbacks.
func analysisFromJob(job jobs.Job) scoring.Analysis {
	a := job.Analysis
	if a == nil {
		return scoring.Analysis{}
	}

	var out scoring.Analysis
	out.Duration = numField(a, "duration")
	out.MetadataDuration = numField(a, "metadataDuration")
	if v, ok := numFieldPtr(a, "silenceRatio"); ok {
		out.SilenceRatio = &v
	}
	if v, ok := numFieldPtr(a, "jumpCutSeverity"); ok {
		out.JumpCutSeverity = &v
	}
	out.AudioDiscontinuityCount = int(numField(a, "audioDiscontinuityCount"))
	out.CaptionDesyncCount = int(numField(a, "captionDesyncCount"))

	if raw, ok := a["engagementWindows"].([]any); ok {
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				out.EngagementWindows = append(out.EngagementWindows, scoring.EngagementWindow{
					Start: numField(m, "start"),
					End:   numField(m, "end"),
					Score: numField(m, "score"),
				})
			}
		}
	}
	if raw, ok := a["editPlanSegments"].([]any); ok {
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				out.EditPlanSegments = append(out.EditPlanSegments, scoring.RawSegment{
					Start: numField(m, "start"),
					End:   numField(m, "end"),
				})
			}
		}
	}
	return out
}

func numField(m map[string]any, key string) float64 {
	v, _ := numFieldPtr(m, key)
	return v
}

func numFieldPtr(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
