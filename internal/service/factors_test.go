package service

import (
	"strings"
	"testing"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
)

func TestReplayFactor(t *testing.T) {
	if got := replayFactor(nil); got.Score != neutralScore {
		t.Fatalf("nil replay score = %v, want %v", got.Score, neutralScore)
	}

	got := replayFactor(&model.ReplayResult{Valid: false, Issues: []string{"checksum mismatch"}})
	if got.Score != 0 {
		t.Fatalf("invalid replay score = %v, want 0", got.Score)
	}
	if !strings.Contains(got.Details, "checksum mismatch") {
		t.Fatalf("invalid replay details missing issue: %q", got.Details)
	}

	if got := replayFactor(&model.ReplayResult{Valid: true, Score: 130}); got.Score != 100 {
		t.Fatalf("valid replay score not clamped: %v", got.Score)
	}
}

func TestStatisticalFactorAnomalousScore(t *testing.T) {
	// Ten sessions around 100, then a 600. Both the z-score and the
	// personal-average ratio fire.
	history := make([]model.GameRecord, 0, 10)
	for i := 0; i < 10; i++ {
		history = append(history, model.GameRecord{Score: float64(95 + i)})
	}
	sctx := &model.SessionContext{Wallet: "0xabc", GameType: "runner", Score: 600}

	got := statisticalFactor(sctx, history, nil)
	if got.Score != 40 {
		t.Fatalf("score = %v, want 40 (z-score and growth penalties)", got.Score)
	}
	if !strings.Contains(got.Details, "z-score") {
		t.Fatalf("details missing z-score reason: %q", got.Details)
	}
}

func TestStatisticalFactorLowVariance(t *testing.T) {
	// Twenty identical scores: machine-like consistency.
	history := make([]model.GameRecord, 0, 20)
	for i := 0; i < 20; i++ {
		history = append(history, model.GameRecord{Score: 100})
	}
	sctx := &model.SessionContext{Wallet: "0xabc", GameType: "runner", Score: 100}

	got := statisticalFactor(sctx, history, nil)
	if got.Score != 100-lowVariancePenalty {
		t.Fatalf("score = %v, want %v", got.Score, 100-lowVariancePenalty)
	}
}

func TestStatisticalFactorInsufficientHistory(t *testing.T) {
	sctx := &model.SessionContext{Wallet: "0xabc", GameType: "runner", Score: 500}

	if got := statisticalFactor(sctx, nil, nil); got.Score != neutralScore {
		t.Fatalf("no history, no baseline: score = %v, want %v", got.Score, neutralScore)
	}

	// With a populated baseline the extreme tail is penalized.
	baseline := &model.GameBaseline{GameType: "runner"}
	for i := 0; i < 200; i++ {
		baseline.Scores = append(baseline.Scores, float64(50+i%50))
	}
	got := statisticalFactor(sctx, nil, baseline)
	if got.Score != neutralScore-percentilePenalty {
		t.Fatalf("baseline fallback score = %v, want %v", got.Score, neutralScore-percentilePenalty)
	}

	// An ordinary first score passes through neutral.
	sctx.Score = 60
	if got := statisticalFactor(sctx, nil, baseline); got.Score != neutralScore {
		t.Fatalf("ordinary first score = %v, want %v", got.Score, neutralScore)
	}
}

func TestBehaviorFactorNewPlayer(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	sctx := &model.SessionContext{
		Wallet: "0xabc",
		Client: &model.ClientInfo{
			UserAgent:    "Mozilla/5.0",
			InputPattern: model.InputPattern{"taps_per_sec": 4.2},
		},
	}

	got, fp := behaviorFactor(sctx, nil, now)
	if got.Score != newPlayerScore {
		t.Fatalf("new player score = %v, want %v", got.Score, newPlayerScore)
	}
	if fp == nil {
		t.Fatal("expected a fingerprint to be established")
	}
	if fp.Wallet != "0xabc" {
		t.Fatalf("fingerprint wallet = %q", fp.Wallet)
	}
	if !fp.HasPlayHour(15) {
		t.Fatalf("play hour not recorded: %v", fp.TypicalPlayHours)
	}
	if fp.InputPattern["taps_per_sec"] != 4.2 {
		t.Fatalf("input pattern not recorded: %v", fp.InputPattern)
	}
}

func TestBehaviorFactorInputDrift(t *testing.T) {
	now := time.Now()
	fp := &model.BehaviorFingerprint{
		Wallet:           "0xabc",
		InputPattern:     model.InputPattern{"taps_per_sec": 10, "swipe_len": 10},
		TypicalPlayHours: []int{now.UTC().Hour()},
	}
	sctx := &model.SessionContext{
		Wallet: "0xabc",
		Client: &model.ClientInfo{
			InputPattern: model.InputPattern{"taps_per_sec": 20, "swipe_len": 20},
		},
	}

	got, updated := behaviorFactor(sctx, fp, now)
	if got.Score != 100-inputDriftPenalty {
		t.Fatalf("score = %v, want %v", got.Score, 100-inputDriftPenalty)
	}
	if updated.InputPattern["taps_per_sec"] != 20 {
		t.Fatalf("fingerprint not updated with new observation: %v", updated.InputPattern)
	}
}

func TestBehaviorFactorSkillJump(t *testing.T) {
	now := time.Now()
	fp := &model.BehaviorFingerprint{
		Wallet:           "0xabc",
		TypicalPlayHours: []int{now.UTC().Hour()},
		Skill:            &model.SkillProgression{PredictedScore: 100, Samples: 30},
	}
	sctx := &model.SessionContext{
		Wallet: "0xabc",
		Score:  250,
		Client: &model.ClientInfo{UserAgent: "Mozilla/5.0"},
	}

	got, _ := behaviorFactor(sctx, fp, now)
	if got.Score != 100-skillJumpPenalty {
		t.Fatalf("score = %v, want %v", got.Score, 100-skillJumpPenalty)
	}
}

func TestBehaviorFactorNoClientInfo(t *testing.T) {
	got, fp := behaviorFactor(&model.SessionContext{Wallet: "0xabc"}, nil, time.Now())
	if got.Score != neutralScore {
		t.Fatalf("score = %v, want %v", got.Score, neutralScore)
	}
	if fp != nil {
		t.Fatal("no fingerprint should be established without client info")
	}
}

func TestReputationFactorRecentSanctions(t *testing.T) {
	now := time.Now()
	profile := &model.PlayerProfile{
		Wallet:     "0xabc",
		FirstSeen:  now.Add(-60 * 24 * time.Hour),
		TrustScore: 70,
		TotalGames: 10,
		SanctionHistory: []model.Sanction{
			{Type: model.SanctionWarning, Timestamp: now.Add(-10 * 24 * time.Hour)},
			{Type: model.SanctionWarning, Timestamp: now.Add(-5 * 24 * time.Hour)},
			{Type: model.SanctionWarning, Timestamp: now.Add(-300 * 24 * time.Hour)}, // outside window
		},
	}

	// 70 + 5 (account age) - 2*10 (recent sanctions) = 55
	got := reputationFactor(profile, now)
	if got.Score != 55 {
		t.Fatalf("score = %v, want 55", got.Score)
	}
}

func TestReputationFactorCleanStreak(t *testing.T) {
	now := time.Now()
	profile := &model.PlayerProfile{
		Wallet:      "0xabc",
		FirstSeen:   now.Add(-time.Hour),
		TrustScore:  80,
		CleanStreak: 100,
	}

	// Streak bonus caps at 10.
	got := reputationFactor(profile, now)
	if got.Score != 90 {
		t.Fatalf("score = %v, want 90", got.Score)
	}
}

func TestSessionFactorPenalties(t *testing.T) {
	now := time.Now()

	sctx := &model.SessionContext{SessionID: "abc", DurationMs: 500}
	got := sessionFactor(sctx, now)
	if got.Score != 100-malformedIDPenalty-shortSessionPenalty {
		t.Fatalf("score = %v, want %v", got.Score, 100-malformedIDPenalty-shortSessionPenalty)
	}

	sctx = &model.SessionContext{
		SessionID:  "session-001",
		DurationMs: 60000,
		Client: &model.ClientInfo{
			ClientTimeMs:     now.Add(-5 * time.Minute).UnixMilli(),
			RequestLatencyMs: 1,
		},
	}
	got = sessionFactor(sctx, now)
	if got.Score != 100-clockDriftPenalty-lowLatencyPenalty {
		t.Fatalf("score = %v, want %v", got.Score, 100-clockDriftPenalty-lowLatencyPenalty)
	}

	sctx = &model.SessionContext{SessionID: "session-001", DurationMs: 60000}
	if got := sessionFactor(sctx, now); got.Score != 100 {
		t.Fatalf("clean session score = %v, want 100", got.Score)
	}
}

func TestEnvironmentFactor(t *testing.T) {
	if got := environmentFactor(nil); got.Score != neutralScore {
		t.Fatalf("nil client score = %v, want %v", got.Score, neutralScore)
	}

	got := environmentFactor(&model.ClientInfo{UserAgent: "Mozilla/5.0 (X11) HeadlessChrome/120.0"})
	if got.Score != 100-automationPenalty {
		t.Fatalf("headless UA score = %v, want %v", got.Score, 100-automationPenalty)
	}

	got = environmentFactor(&model.ClientInfo{
		UserAgent:        "Mozilla/5.0",
		ScreenResolution: "13x7",
		GPURenderer:      "Google SwiftShader",
	})
	if got.Score != 100-resolutionPenalty-headlessGPUPenalty {
		t.Fatalf("score = %v, want %v", got.Score, 100-resolutionPenalty-headlessGPUPenalty)
	}

	got = environmentFactor(&model.ClientInfo{
		UserAgent:          "Mozilla/5.0",
		ScreenResolution:   "1920x1080",
		ConcurrentSessions: 3,
	})
	if got.Score != 100-concurrentPenalty {
		t.Fatalf("score = %v, want %v", got.Score, 100-concurrentPenalty)
	}
}

func TestPlausibleResolution(t *testing.T) {
	cases := []struct {
		res  string
		want bool
	}{
		{"1920x1080", true},
		{"2560X1440", true},
		{"320x240", true},
		{"13x7", false},
		{"99999x99999", false},
		{"widexhigh", false},
	}
	for _, tc := range cases {
		if got := plausibleResolution(tc.res); got != tc.want {
			t.Fatalf("plausibleResolution(%q) = %v, want %v", tc.res, got, tc.want)
		}
	}
}
