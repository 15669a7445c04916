package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/TrustArcade/trustgate/internal/pkg/stats"
)

// Factor calculators. Each is pure given its inputs plus read access to
// profile/baseline state and returns a 0-100 sub-score with a human-readable
// rationale. Missing telemetry degrades to a neutral 50 rather than failing
// the call.

const neutralScore = 50

// Statistical thresholds and deductions.
const (
	minSamplesForAnalysis = 8
	minSamplesForVariance = 20
	minBaselineSamples    = 100

	zScoreLimit        = 2.5
	zScorePenalty      = 25
	growthRatioHigh    = 5.0
	growthPenaltyHigh  = 35
	growthRatioLow     = 3.0
	growthPenaltyLow   = 20
	efficiencyRatio    = 3.0
	efficiencyPenalty  = 20
	lowVarianceFrac    = 0.05
	lowVariancePenalty = 25
	percentilePenalty  = 25
)

// replayFactor passes through the pre-verified replay verdict.
func replayFactor(replay *model.ReplayResult) model.FactorResult {
	if replay == nil {
		return model.FactorResult{Score: neutralScore, Details: "no replay provided"}
	}
	if !replay.Valid {
		details := "replay invalid"
		if len(replay.Issues) > 0 {
			details += ": " + strings.Join(replay.Issues, "; ")
		}
		return model.FactorResult{Score: 0, Details: details}
	}
	return model.FactorResult{
		Score:   stats.Clamp(replay.Score, 0, 100),
		Details: "replay verified",
	}
}

// statisticalFactor compares the new score against the player's own history,
// falling back to the global baseline when history is thin.
func statisticalFactor(sctx *model.SessionContext, history []model.GameRecord, baseline *model.GameBaseline) model.FactorResult {
	samples := make([]float64, 0, len(history))
	for _, rec := range history {
		samples = append(samples, rec.Score)
	}

	if len(samples) < minSamplesForAnalysis {
		// A first-time top performer is mildly suspicious but not
		// determinative, so the fallback only ever penalizes the extreme tail.
		if baseline != nil && len(baseline.Scores) >= minBaselineSamples {
			p99 := stats.Percentile(baseline.Scores, 99)
			if sctx.Score > p99 {
				return model.FactorResult{
					Score:   neutralScore - percentilePenalty,
					Details: fmt.Sprintf("score %.0f above the 99th percentile (%.0f) of the %s baseline", sctx.Score, p99, sctx.GameType),
				}
			}
		}
		return model.FactorResult{Score: neutralScore, Details: "insufficient personal history for statistical analysis"}
	}

	score := 100.0
	var reasons []string

	mean := stats.Mean(samples)
	sd := stats.StdDev(samples)

	if z := stats.ZScore(sctx.Score, samples); math.Abs(z) > zScoreLimit {
		score -= zScorePenalty
		reasons = append(reasons, fmt.Sprintf("z-score %.1f beyond ±%.1f", z, zScoreLimit))
	}

	if mean > 0 {
		switch ratio := sctx.Score / mean; {
		case ratio > growthRatioHigh:
			score -= growthPenaltyHigh
			reasons = append(reasons, fmt.Sprintf("score %.1fx personal average", ratio))
		case ratio > growthRatioLow:
			score -= growthPenaltyLow
			reasons = append(reasons, fmt.Sprintf("score %.1fx personal average", ratio))
		}
	}

	if histEff := historicalEfficiency(history); histEff > 0 && sctx.DurationMs > 0 {
		eff := sctx.Score / float64(sctx.DurationMs)
		if eff > efficiencyRatio*histEff {
			score -= efficiencyPenalty
			reasons = append(reasons, "score-per-ms efficiency far above historical rate")
		}
	}

	// Too-consistent performance is itself a signal, but only once the sample
	// is large enough for low variance to mean something.
	if len(samples) >= minSamplesForVariance && mean > 0 && sd < lowVarianceFrac*mean {
		score -= lowVariancePenalty
		reasons = append(reasons, "suspiciously low score variance")
	}

	details := "no statistical anomalies"
	if len(reasons) > 0 {
		details = strings.Join(reasons, "; ")
	}
	return model.FactorResult{Score: stats.Clamp(score, 0, 100), Details: details}
}

func historicalEfficiency(history []model.GameRecord) float64 {
	sum, n := 0.0, 0
	for _, rec := range history {
		if rec.DurationMs > 0 {
			sum += rec.Score / float64(rec.DurationMs)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Behavior thresholds.
const (
	newPlayerScore      = 80
	inputMatchTolerance = 0.2
	inputMatchMinRatio  = 0.5
	inputDriftPenalty   = 15
	unusualHourPenalty  = 5
	skillJumpRatio      = 2.0
	skillJumpPenalty    = 20
	maxPlayHours        = 24
)

// behaviorFactor compares the session's client signature against the stored
// fingerprint, then folds the current observation into it. The returned
// fingerprint is the updated one (nil when there was nothing to observe).
func behaviorFactor(sctx *model.SessionContext, fp *model.BehaviorFingerprint, now time.Time) (model.FactorResult, *model.BehaviorFingerprint) {
	client := sctx.Client
	if client == nil {
		return model.FactorResult{Score: neutralScore, Details: "no client info provided"}, nil
	}

	hour := now.UTC().Hour()
	if fp == nil {
		fp = &model.BehaviorFingerprint{Wallet: sctx.Wallet}
		applyObservation(fp, client, hour, now)
		return model.FactorResult{Score: newPlayerScore, Details: "new player, fingerprint baseline established"}, fp
	}

	score := 100.0
	var reasons []string

	if len(fp.InputPattern) > 0 && len(client.InputPattern) > 0 {
		if ratio, compared := inputMatchRatio(fp.InputPattern, client.InputPattern); compared > 0 && ratio < inputMatchMinRatio {
			score -= inputDriftPenalty
			reasons = append(reasons, fmt.Sprintf("input pattern match ratio %.2f", ratio))
		}
	}

	if len(fp.TypicalPlayHours) > 0 && !fp.HasPlayHour(hour) {
		score -= unusualHourPenalty
		reasons = append(reasons, fmt.Sprintf("unusual play hour %02d:00", hour))
	}

	if fp.Skill != nil && fp.Skill.PredictedScore > 0 && sctx.Score > skillJumpRatio*fp.Skill.PredictedScore {
		score -= skillJumpPenalty
		reasons = append(reasons, "performance more than double predicted skill")
	}

	applyObservation(fp, client, hour, now)

	details := "behavior consistent with fingerprint"
	if len(reasons) > 0 {
		details = strings.Join(reasons, "; ")
	}
	return model.FactorResult{Score: stats.Clamp(score, 0, 100), Details: details}, fp
}

// inputMatchRatio counts stored components whose current value is within the
// relative-difference tolerance.
func inputMatchRatio(stored, current model.InputPattern) (float64, int) {
	matches, compared := 0, 0
	for key, prev := range stored {
		cur, ok := current[key]
		if !ok {
			continue
		}
		compared++
		base := math.Abs(prev)
		if base == 0 {
			if cur == 0 {
				matches++
			}
			continue
		}
		if math.Abs(cur-prev)/base < inputMatchTolerance {
			matches++
		}
	}
	if compared == 0 {
		return 0, 0
	}
	return float64(matches) / float64(compared), compared
}

func applyObservation(fp *model.BehaviorFingerprint, client *model.ClientInfo, hour int, now time.Time) {
	fp.UserAgent = client.UserAgent
	fp.ScreenResolution = client.ScreenResolution
	fp.Timezone = client.Timezone
	fp.Language = client.Language
	if !fp.HasPlayHour(hour) && len(fp.TypicalPlayHours) < maxPlayHours {
		fp.TypicalPlayHours = append(fp.TypicalPlayHours, hour)
	}
	if len(client.InputPattern) > 0 {
		fp.InputPattern = make(model.InputPattern, len(client.InputPattern))
		for k, v := range client.InputPattern {
			fp.InputPattern[k] = v
		}
	}
	fp.UpdatedAt = now
}

// Reputation thresholds.
const (
	accountAgeBonusDays  = 30
	accountAgeBonus      = 5
	totalGamesBonusAbove = 50
	totalGamesBonus      = 5
	recentSanctionDays   = 30
	recentSanctionCost   = 10
	streakBonusAbove     = 10
	streakBonusDivisor   = 5
	streakBonusMax       = 10
)

// reputationFactor starts from the profile's running trust score, not from a
// flat 100, so a session inherits the wallet's standing.
func reputationFactor(profile *model.PlayerProfile, now time.Time) model.FactorResult {
	score := profile.TrustScore
	var reasons []string

	if now.Sub(profile.FirstSeen) > accountAgeBonusDays*24*time.Hour {
		score += accountAgeBonus
		reasons = append(reasons, "established account")
	}
	if profile.TotalGames > totalGamesBonusAbove {
		score += totalGamesBonus
		reasons = append(reasons, "extensive play history")
	}

	cutoff := now.Add(-recentSanctionDays * 24 * time.Hour)
	recent := 0
	for _, s := range profile.SanctionHistory {
		if s.Timestamp.After(cutoff) {
			recent++
		}
	}
	if recent > 0 {
		score -= float64(recent * recentSanctionCost)
		reasons = append(reasons, fmt.Sprintf("%d sanction(s) in the last %d days", recent, recentSanctionDays))
	}

	if profile.CleanStreak > streakBonusAbove {
		bonus := math.Min(streakBonusMax, float64(profile.CleanStreak)/streakBonusDivisor)
		score += bonus
		reasons = append(reasons, fmt.Sprintf("clean streak of %d sessions", profile.CleanStreak))
	}

	details := "reputation from running trust score"
	if len(reasons) > 0 {
		details = strings.Join(reasons, "; ")
	}
	return model.FactorResult{Score: stats.Clamp(score, 0, 100), Details: details}
}

// Session integrity thresholds.
const (
	minSessionIDLen       = 8
	malformedIDPenalty    = 30
	minDurationMs         = 1000
	shortSessionPenalty   = 40
	maxDurationMs         = 4 * 60 * 60 * 1000
	longSessionPenalty    = 10
	maxClockDriftMs       = 60000
	clockDriftPenalty     = 20
	minPlausibleLatencyMs = 5
	lowLatencyPenalty     = 15
)

func sessionFactor(sctx *model.SessionContext, now time.Time) model.FactorResult {
	score := 100.0
	var reasons []string

	if len(sctx.SessionID) < minSessionIDLen {
		score -= malformedIDPenalty
		reasons = append(reasons, "malformed session id")
	}
	if sctx.DurationMs < minDurationMs {
		score -= shortSessionPenalty
		reasons = append(reasons, "implausibly short session")
	} else if sctx.DurationMs > maxDurationMs {
		score -= longSessionPenalty
		reasons = append(reasons, "implausibly long session")
	}
	if sctx.Client != nil {
		if sctx.Client.ClientTimeMs > 0 {
			drift := now.UnixMilli() - sctx.Client.ClientTimeMs
			if drift < 0 {
				drift = -drift
			}
			if drift > maxClockDriftMs {
				score -= clockDriftPenalty
				reasons = append(reasons, fmt.Sprintf("client clock drift %ds", drift/1000))
			}
		}
		if sctx.Client.RequestLatencyMs > 0 && sctx.Client.RequestLatencyMs < minPlausibleLatencyMs {
			score -= lowLatencyPenalty
			reasons = append(reasons, "suspiciously low request latency")
		}
	}

	details := "session integrity checks passed"
	if len(reasons) > 0 {
		details = strings.Join(reasons, "; ")
	}
	return model.FactorResult{Score: stats.Clamp(score, 0, 100), Details: details}
}

// Environment thresholds.
const (
	missingUAPenalty       = 20
	automationPenalty      = 40
	resolutionPenalty      = 15
	headlessGPUPenalty     = 25
	concurrentPenalty      = 20
	maxConcurrentSessions  = 1
	minScreenW, minScreenH = 320, 240
	maxScreenW, maxScreenH = 7680, 4320
)

var automationSignatures = []string{
	"headless", "selenium", "puppeteer", "playwright", "phantomjs",
	"python-requests", "curl/", "wget/", "bot",
}

var headlessGPUSignatures = []string{
	"swiftshader", "llvmpipe", "software", "mesa offscreen",
}

func environmentFactor(client *model.ClientInfo) model.FactorResult {
	if client == nil {
		return model.FactorResult{Score: neutralScore, Details: "no client info provided"}
	}

	score := 100.0
	var reasons []string

	ua := strings.ToLower(client.UserAgent)
	if ua == "" {
		score -= missingUAPenalty
		reasons = append(reasons, "missing user agent")
	} else {
		for _, sig := range automationSignatures {
			if strings.Contains(ua, sig) {
				score -= automationPenalty
				reasons = append(reasons, "automation signature in user agent")
				break
			}
		}
	}

	if client.ScreenResolution != "" && !plausibleResolution(client.ScreenResolution) {
		score -= resolutionPenalty
		reasons = append(reasons, fmt.Sprintf("implausible screen resolution %q", client.ScreenResolution))
	}

	gpu := strings.ToLower(client.GPURenderer)
	for _, sig := range headlessGPUSignatures {
		if gpu != "" && strings.Contains(gpu, sig) {
			score -= headlessGPUPenalty
			reasons = append(reasons, "software/headless GPU renderer")
			break
		}
	}

	if client.ConcurrentSessions > maxConcurrentSessions {
		score -= concurrentPenalty
		reasons = append(reasons, fmt.Sprintf("%d concurrent sessions", client.ConcurrentSessions))
	}

	details := "environment checks passed"
	if len(reasons) > 0 {
		details = strings.Join(reasons, "; ")
	}
	return model.FactorResult{Score: stats.Clamp(score, 0, 100), Details: details}
}

func plausibleResolution(res string) bool {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(res), "%dx%d", &w, &h); err != nil {
		return false
	}
	return w >= minScreenW && w <= maxScreenW && h >= minScreenH && h <= maxScreenH
}
