package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/TrustArcade/trustgate/internal/config"
	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/TrustArcade/trustgate/internal/pkg/apperrors"
	"github.com/TrustArcade/trustgate/internal/pkg/logger"
	"github.com/TrustArcade/trustgate/internal/pkg/metrics"
	"github.com/TrustArcade/trustgate/internal/pkg/stats"
	"github.com/TrustArcade/trustgate/internal/repository"
	"github.com/shopspring/decimal"
)

// Fixed factor weights; they sum to exactly 1.0. Kept as decimal strings so
// the weighted fold stays exact until the final integer rounding.
var (
	weightReplay      = decimal.RequireFromString("0.25")
	weightStatistical = decimal.RequireFromString("0.20")
	weightBehavior    = decimal.RequireFromString("0.20")
	weightReputation  = decimal.RequireFromString("0.15")
	weightSession     = decimal.RequireFromString("0.10")
	weightEnvironment = decimal.RequireFromString("0.10")
)

// Profile trust score smoothing: new = 0.8*old + 0.2*session. The heavy old
// weight resists single-session manipulation.
const (
	emaOldWeight     = 0.8
	emaSessionWeight = 0.2
)

const lockStripes = 64

// TrustEngine turns session telemetry into a trust score, a status
// classification and zero or more sanctions, and maintains the per-wallet
// reputation across sessions.
type TrustEngine struct {
	cfg        config.EngineConfig
	profiles   repository.ProfileStore
	prints     repository.FingerprintStore
	baselines  repository.BaselineStore
	detections repository.DetectionStore
	sanctions  *SanctionEngine
	audit      *AuditService
	feed       *DetectionFeed

	// Striped per-wallet locks: AnalyzeSession is a read-modify-write on one
	// wallet's profile; cross-wallet calls run fully in parallel.
	locks [lockStripes]sync.Mutex

	statsMu    sync.Mutex
	analyses   int64
	suspicious int64
	scoreSum   int64

	sweepStop chan struct{}
	sweepDone chan struct{}
}

type TrustEngineDeps struct {
	Profiles     repository.ProfileStore
	Fingerprints repository.FingerprintStore
	Baselines    repository.BaselineStore
	Detections   repository.DetectionStore
	Sanctions    *SanctionEngine
	Audit        *AuditService
	Feed         *DetectionFeed
}

func NewTrustEngine(cfg config.EngineConfig, deps TrustEngineDeps) *TrustEngine {
	return &TrustEngine{
		cfg:        cfg,
		profiles:   deps.Profiles,
		prints:     deps.Fingerprints,
		baselines:  deps.Baselines,
		detections: deps.Detections,
		sanctions:  deps.Sanctions,
		audit:      deps.Audit,
		feed:       deps.Feed,
	}
}

// AnalyzeSession runs the full pipeline for one session: profile fetch,
// six factors, weighted score, profile update, sanction decision.
func (e *TrustEngine) AnalyzeSession(ctx context.Context, sctx *model.SessionContext) (*model.AnalysisResult, error) {
	if sctx == nil || sctx.Wallet == "" {
		return nil, apperrors.NewInvalidRequest("missing wallet")
	}
	now := time.Now()

	unlock := e.lockWallet(sctx.Wallet)
	defer unlock()

	profile, err := e.getOrCreateProfile(ctx, sctx.Wallet, now)
	if err != nil {
		return nil, err
	}

	fp, err := e.prints.Get(ctx, sctx.Wallet)
	if err != nil {
		logger.Warn("fingerprint fetch failed, scoring without one", "error", err)
	}
	baseline, err := e.baselines.Get(ctx, sctx.GameType)
	if err != nil {
		logger.Warn("baseline fetch failed, scoring without one", "error", err)
	}

	history := profile.GameHistory[sctx.GameType]

	var factors model.FactorSet
	factors.Replay = replayFactor(sctx.Replay)
	factors.Statistical = statisticalFactor(sctx, history, baseline)
	behavior, updatedFP := behaviorFactor(sctx, fp, now)
	factors.Behavior = behavior
	factors.Reputation = reputationFactor(profile, now)
	factors.Session = sessionFactor(sctx, now)
	factors.Environment = environmentFactor(sctx.Client)

	if updatedFP != nil {
		if err := e.prints.Upsert(ctx, updatedFP); err != nil {
			logger.Warn("fingerprint update failed", "error", err)
		}
	}

	score := weightedTrustScore(factors)
	status := model.StatusForScore(score)

	// Profile update: bounded history, EMA trust score, streak tracking.
	record := model.GameRecord{
		Score:      sctx.Score,
		DurationMs: sctx.DurationMs,
		TrustScore: score,
		Timestamp:  now,
	}
	records := append(profile.GameHistory[sctx.GameType], record)
	if max := e.historyMax(); len(records) > max {
		records = records[len(records)-max:]
	}
	profile.GameHistory[sctx.GameType] = records
	profile.TrustScore = stats.Clamp(emaOldWeight*profile.TrustScore+emaSessionWeight*float64(score), 0, 100)
	profile.TotalGames++
	profile.LastSeen = now
	if score >= model.ThresholdNormal {
		profile.CleanStreak++
	} else {
		profile.CleanStreak = 0
	}

	sanctions := e.sanctions.Apply(ctx, profile, score, now)

	if err := e.profiles.Upsert(ctx, profile); err != nil {
		logger.Error("profile persist failed", "wallet", model.RedactWallet(sctx.Wallet), "error", err)
	}
	if err := e.baselines.Add(ctx, sctx.GameType, sctx.Score); err != nil {
		logger.Warn("baseline update failed", "error", err)
	}

	e.recordOutcome(ctx, sctx, factors, score, status, sanctions, now)

	return &model.AnalysisResult{
		TrustScore:        score,
		Status:            status,
		Factors:           factors,
		Sanctions:         sanctions,
		ProfileTrustScore: int(decimal.NewFromFloat(profile.TrustScore).Round(0).IntPart()),
	}, nil
}

// CheckBan reports whether a wallet is currently banned. Creates the profile
// lazily like AnalyzeSession does.
func (e *TrustEngine) CheckBan(ctx context.Context, wallet string) (model.BanStatus, error) {
	if wallet == "" {
		return model.BanStatus{}, apperrors.NewInvalidRequest("missing wallet")
	}
	now := time.Now()

	unlock := e.lockWallet(wallet)
	defer unlock()

	if _, err := e.getOrCreateProfile(ctx, wallet, now); err != nil {
		return model.BanStatus{}, err
	}
	return e.sanctions.CheckBan(ctx, wallet, now)
}

// GetProfile returns the read-only player-facing view of a wallet.
func (e *TrustEngine) GetProfile(ctx context.Context, wallet string) (model.ProfileSummary, error) {
	profile, err := e.profiles.Get(ctx, wallet)
	if err != nil {
		return model.ProfileSummary{}, err
	}
	if profile == nil {
		return model.ProfileSummary{Found: false}, nil
	}
	now := time.Now()
	active, err := e.sanctions.ActiveSanctions(ctx, wallet, now)
	if err != nil {
		return model.ProfileSummary{}, err
	}
	trust := int(decimal.NewFromFloat(profile.TrustScore).Round(0).IntPart())
	memberSince := profile.FirstSeen
	return model.ProfileSummary{
		Found:           true,
		Wallet:          profile.Wallet,
		TrustScore:      trust,
		Status:          model.StatusForScore(trust),
		TotalGames:      profile.TotalGames,
		CleanStreak:     profile.CleanStreak,
		WarningCount:    profile.WarningCount,
		ActiveSanctions: active,
		MemberSince:     &memberSince,
	}, nil
}

// LiftSanction removes a sanction from the active table, keeping history.
func (e *TrustEngine) LiftSanction(ctx context.Context, wallet, id, reason string) error {
	removed, err := e.sanctions.Lift(ctx, wallet, id, reason)
	if err != nil {
		return err
	}
	if removed == nil {
		return apperrors.NewNotFound(fmt.Sprintf("no active sanction %s for wallet", id))
	}
	return nil
}

// ReportFalsePositive flags a wallet's profile for manual review and emits
// an audit event.
func (e *TrustEngine) ReportFalsePositive(ctx context.Context, wallet, details string) error {
	unlock := e.lockWallet(wallet)
	defer unlock()

	now := time.Now()
	profile, err := e.getOrCreateProfile(ctx, wallet, now)
	if err != nil {
		return err
	}
	if !profile.HasFlag("false_positive_reported") {
		profile.Flags = append(profile.Flags, "false_positive_reported")
		if err := e.profiles.Upsert(ctx, profile); err != nil {
			return err
		}
	}
	if e.audit != nil {
		e.audit.LogEngineEvent(model.AuditFalsePositive, wallet, map[string]interface{}{
			"details": details,
		})
	}
	logger.Info("false positive reported", "wallet", model.RedactWallet(wallet))
	return nil
}

// GetStats returns the aggregate counters for operators. The average is
// recomputed from a sum/count pair, never a streaming formula.
func (e *TrustEngine) GetStats(ctx context.Context) (model.GlobalStats, error) {
	e.statsMu.Lock()
	analyses := e.analyses
	suspicious := e.suspicious
	scoreSum := e.scoreSum
	e.statsMu.Unlock()

	avg := 0.0
	if analyses > 0 {
		avg = float64(scoreSum) / float64(analyses)
	}
	profiles, err := e.profiles.Count(ctx)
	if err != nil {
		return model.GlobalStats{}, err
	}
	active, err := e.sanctions.CountActive(ctx, time.Now())
	if err != nil {
		return model.GlobalStats{}, err
	}
	return model.GlobalStats{
		TotalAnalyses:      analyses,
		SuspiciousSessions: suspicious,
		AvgTrustScore:      avg,
		SanctionsByType:    e.sanctions.CountsByType(),
		TrackedProfiles:    profiles,
		ActiveSanctions:    active,
	}, nil
}

// GetRecentDetections returns up to limit detection entries, newest first.
func (e *TrustEngine) GetRecentDetections(ctx context.Context, limit int) ([]model.DetectionLogEntry, error) {
	return e.detections.Recent(ctx, limit)
}

// StartSweeper launches the periodic active-sanction sweep.
func (e *TrustEngine) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	e.sweepStop = make(chan struct{})
	e.sweepDone = make(chan struct{})
	go func() {
		defer close(e.sweepDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := e.sanctions.Sweep(context.Background(), time.Now())
				if err != nil {
					logger.Error("sanction sweep failed", "error", err)
				} else if removed > 0 {
					logger.Info("sanction sweep completed", "removed", removed)
				}
			case <-e.sweepStop:
				return
			}
		}
	}()
}

// StopSweeper stops the periodic sweep and waits for it to exit.
func (e *TrustEngine) StopSweeper() {
	if e.sweepStop == nil {
		return
	}
	close(e.sweepStop)
	<-e.sweepDone
}

func weightedTrustScore(f model.FactorSet) int {
	sum := decimal.Zero
	for _, wf := range []struct {
		weight decimal.Decimal
		score  float64
	}{
		{weightReplay, f.Replay.Score},
		{weightStatistical, f.Statistical.Score},
		{weightBehavior, f.Behavior.Score},
		{weightReputation, f.Reputation.Score},
		{weightSession, f.Session.Score},
		{weightEnvironment, f.Environment.Score},
	} {
		sum = sum.Add(wf.weight.Mul(decimal.NewFromFloat(stats.Clamp(wf.score, 0, 100))))
	}
	score := int(sum.Round(0).IntPart())
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// getOrCreateProfile must run under the wallet's stripe lock.
func (e *TrustEngine) getOrCreateProfile(ctx context.Context, wallet string, now time.Time) (*model.PlayerProfile, error) {
	profile, err := e.profiles.Get(ctx, wallet)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrStore, "profile fetch failed", err)
	}
	if profile != nil {
		return profile, nil
	}

	// Inline sweep: keep the tracked-profile count bounded before admitting
	// a new wallet.
	if count, err := e.profiles.Count(ctx); err == nil && count >= e.profileCeiling() {
		e.pruneStaleProfiles(ctx, now)
	}

	profile = model.NewPlayerProfile(wallet, now)
	if err := e.profiles.Upsert(ctx, profile); err != nil {
		return nil, apperrors.New(apperrors.ErrStore, "profile create failed", err)
	}
	return profile, nil
}

func (e *TrustEngine) pruneStaleProfiles(ctx context.Context, now time.Time) {
	cutoff := now.Add(-time.Duration(e.retentionDays()) * 24 * time.Hour)
	evicted, err := e.profiles.PruneBefore(ctx, cutoff)
	if err != nil {
		logger.Error("profile prune failed", "error", err)
		return
	}
	for _, wallet := range evicted {
		if err := e.prints.Delete(ctx, wallet); err != nil {
			logger.Warn("fingerprint eviction failed", "wallet", model.RedactWallet(wallet), "error", err)
		}
	}
	if len(evicted) > 0 {
		logger.Info("pruned stale profiles", "count", len(evicted))
	}
}

func (e *TrustEngine) recordOutcome(ctx context.Context, sctx *model.SessionContext, factors model.FactorSet, score int, status model.TrustStatus, sanctions []*model.Sanction, now time.Time) {
	e.statsMu.Lock()
	e.analyses++
	e.scoreSum += int64(score)
	if score < model.ThresholdNormal {
		e.suspicious++
	}
	e.statsMu.Unlock()

	metrics.SessionsAnalyzed.WithLabelValues(string(status)).Inc()
	metrics.TrustScores.Observe(float64(score))

	if score >= model.ThresholdNormal {
		return
	}

	types := make([]model.SanctionType, 0, len(sanctions))
	for _, s := range sanctions {
		types = append(types, s.Type)
	}
	entry := model.DetectionLogEntry{
		Wallet:     model.RedactWallet(sctx.Wallet),
		SessionID:  sctx.SessionID,
		GameType:   sctx.GameType,
		TrustScore: score,
		Status:     status,
		Factors:    summarizeFactors(factors),
		Sanctions:  types,
		Timestamp:  now,
	}
	if err := e.detections.Append(ctx, entry); err != nil {
		logger.Warn("detection log append failed", "error", err)
	}
	metrics.DetectionsLogged.Inc()
	if e.feed != nil {
		e.feed.Publish(entry)
	}
}

func summarizeFactors(f model.FactorSet) string {
	return fmt.Sprintf("replay=%.0f statistical=%.0f behavior=%.0f reputation=%.0f session=%.0f environment=%.0f",
		f.Replay.Score, f.Statistical.Score, f.Behavior.Score, f.Reputation.Score, f.Session.Score, f.Environment.Score)
}

func (e *TrustEngine) lockWallet(wallet string) func() {
	h := fnv.New32a()
	h.Write([]byte(wallet))
	stripe := &e.locks[h.Sum32()%lockStripes]
	stripe.Lock()
	return stripe.Unlock
}

func (e *TrustEngine) historyMax() int {
	if e.cfg.HistoryMax > 0 {
		return e.cfg.HistoryMax
	}
	return 100
}

func (e *TrustEngine) profileCeiling() int {
	if e.cfg.ProfileCeiling > 0 {
		return e.cfg.ProfileCeiling
	}
	return 50000
}

func (e *TrustEngine) retentionDays() int {
	if e.cfg.ProfileRetentionDays > 0 {
		return e.cfg.ProfileRetentionDays
	}
	return 90
}
