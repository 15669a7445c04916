package model

// ReplayResult is the pre-verified outcome of replay validation.
// Replays arrive already checked by the ingestion layer; the engine only
// consumes the verdict.
type ReplayResult struct {
	Valid  bool     `json:"valid"`
	Score  float64  `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

// InputPattern is an opaque map of client-side input metrics
// (e.g. taps per second, average swipe length). Keys are client-defined.
type InputPattern map[string]float64

// ClientInfo carries the client environment observed for a session.
// Every field is optional; missing telemetry degrades to neutral scores.
type ClientInfo struct {
	UserAgent          string       `json:"user_agent,omitempty"`
	ScreenResolution   string       `json:"screen_resolution,omitempty"` // "1920x1080"
	Timezone           string       `json:"timezone,omitempty"`
	Language           string       `json:"language,omitempty"`
	GPURenderer        string       `json:"gpu_renderer,omitempty"`
	InputPattern       InputPattern `json:"input_pattern,omitempty"`
	ClientTimeMs       int64        `json:"client_time_ms,omitempty"`
	RequestLatencyMs   float64      `json:"request_latency_ms,omitempty"`
	ConcurrentSessions int          `json:"concurrent_sessions,omitempty"`
}

// SessionContext is the incoming JSON body for a session analysis request.
type SessionContext struct {
	Wallet     string        `json:"wallet" binding:"required"`
	SessionID  string        `json:"session_id" binding:"required"`
	GameType   string        `json:"game_type" binding:"required"`
	Score      float64       `json:"score"`
	DurationMs int64         `json:"duration_ms"`
	Replay     *ReplayResult `json:"replay,omitempty"`
	Client     *ClientInfo   `json:"client_info,omitempty"`
}

// FactorResult is one sub-score with its human-readable rationale.
type FactorResult struct {
	Score   float64 `json:"score"`
	Details string  `json:"details"`
}

// FactorSet holds all six factors. A fixed struct rather than a map so the
// compiler enforces that every factor is always supplied.
type FactorSet struct {
	Replay      FactorResult `json:"replay"`
	Statistical FactorResult `json:"statistical"`
	Behavior    FactorResult `json:"behavior"`
	Reputation  FactorResult `json:"reputation"`
	Session     FactorResult `json:"session"`
	Environment FactorResult `json:"environment"`
}

// AnalysisResult is the outcome of a single session analysis.
type AnalysisResult struct {
	TrustScore        int         `json:"trust_score"`
	Status            TrustStatus `json:"status"`
	Factors           FactorSet   `json:"factors"`
	Sanctions         []*Sanction `json:"sanctions"`
	ProfileTrustScore int         `json:"profile_trust_score"`
}
