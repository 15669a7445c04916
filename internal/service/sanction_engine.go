package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/TrustArcade/trustgate/internal/pkg/logger"
	"github.com/TrustArcade/trustgate/internal/pkg/metrics"
	"github.com/TrustArcade/trustgate/internal/repository"
	"github.com/google/uuid"
)

// Escalating temporary-ban durations in days, indexed by the player's count
// of prior temporary bans and clamped to the last entry.
var banDurationsDays = []int{1, 2, 3, 5, 8, 13, 21, 34, 55, 89}

const maxWarnings = 3

// SanctionEngine maps trust-score bands to sanctions and tracks the active
// sanction table.
type SanctionEngine struct {
	active repository.SanctionStore
	audit  *AuditService

	mu     sync.Mutex
	counts map[model.SanctionType]int64
}

func NewSanctionEngine(active repository.SanctionStore, audit *AuditService) *SanctionEngine {
	return &SanctionEngine{
		active: active,
		audit:  audit,
		counts: make(map[model.SanctionType]int64),
	}
}

// BanDurationDays returns the escalating ban length for the Nth prior
// temporary ban (0-indexed).
func BanDurationDays(priorBans int) int {
	if priorBans < 0 {
		priorBans = 0
	}
	if priorBans >= len(banDurationsDays) {
		priorBans = len(banDurationsDays) - 1
	}
	return banDurationsDays[priorBans]
}

// Apply evaluates the sanction decision rule once for a scored session.
// Issued sanctions are appended to the profile's permanent history (the
// caller persists the profile) and to the active table. Store failures are
// logged but never fail the scoring call: the result still lists the
// sanction, and a reconciliation job owns lost-write detection.
func (e *SanctionEngine) Apply(ctx context.Context, profile *model.PlayerProfile, score int, now time.Time) []*model.Sanction {
	var issued []*model.Sanction

	switch {
	case score < model.ThresholdRestricted:
		prior := 0
		for _, s := range profile.SanctionHistory {
			if s.Type == model.SanctionTemporaryBan {
				prior++
			}
		}
		days := BanDurationDays(prior)
		expires := now.Add(time.Duration(days) * 24 * time.Hour)
		issued = append(issued, &model.Sanction{
			ID:        uuid.NewString(),
			Type:      model.SanctionTemporaryBan,
			Reason:    fmt.Sprintf("trust score %d below ban threshold; %d-day ban (offense %d)", score, days, prior+1),
			Automated: true,
			Timestamp: now,
			ExpiresAt: &expires,
		})

	case score < model.ThresholdFlagged:
		reason := fmt.Sprintf("trust score %d in restricted band", score)
		issued = append(issued,
			&model.Sanction{ID: uuid.NewString(), Type: model.SanctionScoreInvalidation, Reason: reason, Automated: true, Timestamp: now},
			&model.Sanction{ID: uuid.NewString(), Type: model.SanctionLeaderboardRemoval, Reason: reason, Automated: true, Timestamp: now},
		)

	case score < model.ThresholdSuspicious:
		// Repeated low-tier offenses escalate past warnings.
		if profile.WarningCount < maxWarnings {
			profile.WarningCount++
			issued = append(issued, &model.Sanction{
				ID:        uuid.NewString(),
				Type:      model.SanctionWarning,
				Reason:    fmt.Sprintf("trust score %d in flagged band (warning %d/%d)", score, profile.WarningCount, maxWarnings),
				Automated: true,
				Timestamp: now,
			})
		} else {
			issued = append(issued, &model.Sanction{
				ID:        uuid.NewString(),
				Type:      model.SanctionScoreInvalidation,
				Reason:    fmt.Sprintf("trust score %d in flagged band after %d warnings", score, maxWarnings),
				Automated: true,
				Timestamp: now,
			})
		}
	}

	for _, s := range issued {
		profile.SanctionHistory = append(profile.SanctionHistory, *s)
		if err := e.active.Append(ctx, profile.Wallet, *s); err != nil {
			logger.Error("failed to persist active sanction", "wallet", model.RedactWallet(profile.Wallet), "type", s.Type, "error", err)
		}
		e.record(s.Type)
		metrics.SanctionsIssued.WithLabelValues(string(s.Type)).Inc()
		if e.audit != nil {
			e.audit.LogEngineEvent(model.AuditSanctionIssued, profile.Wallet, map[string]interface{}{
				"sanction_id": s.ID,
				"type":        string(s.Type),
				"reason":      s.Reason,
				"trust_score": score,
			})
		}
	}
	return issued
}

// CheckBan returns the first currently-active ban-type sanction for a wallet.
func (e *SanctionEngine) CheckBan(ctx context.Context, wallet string, now time.Time) (model.BanStatus, error) {
	list, err := e.active.List(ctx, wallet)
	if err != nil {
		return model.BanStatus{}, err
	}
	for _, s := range list {
		if s.IsBan() && s.ActiveAt(now) {
			return model.BanStatus{
				Banned:    true,
				Type:      s.Type,
				ExpiresAt: s.ExpiresAt,
				Reason:    s.Reason,
			}, nil
		}
	}
	return model.BanStatus{Banned: false}, nil
}

// Lift removes a sanction from the active table (never from history).
// Intended for manual operator override.
func (e *SanctionEngine) Lift(ctx context.Context, wallet, id, reason string) (*model.Sanction, error) {
	removed, err := e.active.Remove(ctx, wallet, id)
	if err != nil {
		return nil, err
	}
	if removed == nil {
		return nil, nil
	}
	logger.Info("sanction lifted", "wallet", model.RedactWallet(wallet), "sanction_id", id, "type", removed.Type, "reason", reason)
	if e.audit != nil {
		e.audit.LogEngineEvent(model.AuditSanctionLifted, wallet, map[string]interface{}{
			"sanction_id": id,
			"type":        string(removed.Type),
			"reason":      reason,
		})
	}
	return removed, nil
}

// ActiveSanctions lists a wallet's currently-active sanctions.
func (e *SanctionEngine) ActiveSanctions(ctx context.Context, wallet string, now time.Time) ([]model.Sanction, error) {
	list, err := e.active.List(ctx, wallet)
	if err != nil {
		return nil, err
	}
	active := list[:0:0]
	for _, s := range list {
		if s.ActiveAt(now) {
			active = append(active, s)
		}
	}
	return active, nil
}

// Sweep drops expired sanctions from the active table.
func (e *SanctionEngine) Sweep(ctx context.Context, now time.Time) (int, error) {
	return e.active.Sweep(ctx, now)
}

// CountActive returns the number of in-force sanctions across all wallets.
func (e *SanctionEngine) CountActive(ctx context.Context, now time.Time) (int, error) {
	return e.active.CountActive(ctx, now)
}

// CountsByType returns a copy of the issued-sanction counters.
func (e *SanctionEngine) CountsByType() map[model.SanctionType]int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[model.SanctionType]int64, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}

func (e *SanctionEngine) record(t model.SanctionType) {
	e.mu.Lock()
	e.counts[t]++
	e.mu.Unlock()
}
