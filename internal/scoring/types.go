package scoring

// RawSegment is one entry of a cut_list or editPlan.segments array, in
// seconds.
type RawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// EngagementWindow is one entry of analysis.engagementWindows.
type EngagementWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

// Analysis is the upstream pipeline's payload. Every field is optional;
// Evaluate fills in documented fallbacks for anything missing.
type Analysis struct {
	Duration                float64            `json:"duration"`
	MetadataDuration        float64            `json:"metadataDuration"`
	EngagementWindows       []EngagementWindow `json:"engagementWindows"`
	EditPlanSegments        []RawSegment       `json:"editPlanSegments"`
	SilenceRatio            *float64           `json:"silenceRatio"`
	JumpCutSeverity         *float64           `json:"jumpCutSeverity"`
	AudioDiscontinuityCount int                `json:"audioDiscontinuityCount"`
	CaptionDesyncCount      int                `json:"captionDesyncCount"`
}

// TranscriptCue is one normalized transcript entry.
type TranscriptCue struct {
	Start float64
	End   float64
	Text  string
}

// Features is the full derived-feature bundle computed once per Evaluate
// call. Nothing here is persisted independently of a RenderQualityMetric row.
type Features struct {
	DurationSec             float64         `json:"duration_sec"`
	SilenceRatio            float64         `json:"silence_ratio"`
	FillerRate              float64         `json:"filler_rate"`
	ShotLengthMeanSec       float64         `json:"shot_length_mean_sec"`
	CutRate                 float64         `json:"cut_rate"`
	RedundancyScore         float64         `json:"redundancy_score"`
	EnergyMean              float64         `json:"energy_mean"`
	EnergyVariance          float64         `json:"energy_variance"`
	SpikeDensity            float64         `json:"spike_density"`
	FlatSegmentSeconds      float64         `json:"flat_segment_seconds"`
	JumpCutSeverity         float64         `json:"jump_cut_severity"`
	AudioDiscontinuityCount int             `json:"audio_discontinuity_count"`
	CaptionDesyncCount      int             `json:"caption_desync_count"`
	HookTimeToPayoffSec     float64         `json:"hook_time_to_payoff_sec"`
	BestMomentInFirst8s     bool            `json:"best_moment_in_first_8s"`
	SegmentSignals          []SegmentSignal `json:"segment_signals"`
	MissingSignals          []string        `json:"missing_signals"`
}

// SegmentSignal is the per-segment channel vector extracted before any
// keep/drop decision is made. All risk/signal channels are in [0,1].
type SegmentSignal struct {
	Start             float64 `json:"start"`
	End               float64 `json:"end"`
	Duration          float64 `json:"duration"`
	Energy            float64 `json:"energy"`
	InfoDensity       float64 `json:"info_density"`
	Novelty           float64 `json:"novelty"`
	Emotion           float64 `json:"emotion"`
	Filler            float64 `json:"filler"`
	Redundancy        float64 `json:"redundancy"`
	ContinuityRisk    float64 `json:"continuity_risk"`
	ContextLossRisk   float64 `json:"context_loss_risk"`
	AudioJankRisk     float64 `json:"audio_jank_risk"`
	IsContextSegment  bool    `json:"is_context_segment"`
}

// SegmentDecision is a SegmentSignal plus the keep/drop decision derived
// from it.
type SegmentDecision struct {
	SegmentSignal
	ValueScore        float64  `json:"value_score"`
	RiskScore         float64  `json:"risk_score"`
	KeepProbability   float64  `json:"keep_probability"`
	KeepRecommendation bool    `json:"keep_recommendation"`
	Reasons           []string `json:"reasons"`
}

// Subscores holds the seven per-render dimensions, each in [0,1].
type Subscores struct {
	Hook    float64 `json:"hook"`
	Pacing  float64 `json:"pacing"`
	Energy  float64 `json:"energy"`
	Variety float64 `json:"variety"`
	Story   float64 `json:"story"`
	Filler  float64 `json:"filler"`
	Jank    float64 `json:"jank"`
}

// Flags carries diagnostic and safety-adjustment signals produced during
// evaluation.
type Flags struct {
	MicroCrossfadeRequired  bool     `json:"micro_crossfade_required,omitempty"`
	AutoSafetyAdjusted      bool     `json:"auto_safety_adjusted"`
	AutoSafetyAdjustReason  string   `json:"auto_safety_adjust_reason,omitempty"`
	AdjustedCutAggression   *float64 `json:"adjusted_cut_aggression,omitempty"`
	PredictedJank           float64  `json:"predicted_jank"`
}

// Result is the full output of Evaluate.
type Result struct {
	ScoreTotal float64           `json:"score_total"`
	Subscores  Subscores         `json:"subscores"`
	Features   Features          `json:"features"`
	Flags      Flags             `json:"flags"`
	Decisions  []SegmentDecision `json:"decisions"`
}
