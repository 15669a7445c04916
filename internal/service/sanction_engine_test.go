package service

import (
	"context"
	"testing"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/TrustArcade/trustgate/internal/repository"
)

func newSanctionFixture() (*SanctionEngine, *repository.MemorySanctionStore) {
	active := repository.NewMemorySanctionStore()
	return NewSanctionEngine(active, nil), active
}

func TestBanDurationDays(t *testing.T) {
	cases := []struct {
		prior int
		want  int
	}{
		{-1, 1},
		{0, 1},
		{1, 2},
		{2, 3},
		{4, 8},
		{9, 89},
		{50, 89},
	}
	for _, tc := range cases {
		if got := BanDurationDays(tc.prior); got != tc.want {
			t.Fatalf("BanDurationDays(%d) = %d, want %d", tc.prior, got, tc.want)
		}
	}
}

func TestApplyNoSanctionAboveSuspicious(t *testing.T) {
	engine, _ := newSanctionFixture()
	profile := model.NewPlayerProfile("0xabc", time.Now())

	issued := engine.Apply(context.Background(), profile, 60, time.Now())
	if len(issued) != 0 {
		t.Fatalf("expected no sanctions for score 60, got %d", len(issued))
	}
	if len(profile.SanctionHistory) != 0 {
		t.Fatalf("history should stay empty, got %d", len(profile.SanctionHistory))
	}
}

func TestApplyWarningEscalation(t *testing.T) {
	engine, _ := newSanctionFixture()
	now := time.Now()
	profile := model.NewPlayerProfile("0xabc", now)

	// First three flagged-band sessions earn warnings, the fourth escalates.
	for i := 1; i <= 3; i++ {
		issued := engine.Apply(context.Background(), profile, 30, now)
		if len(issued) != 1 || issued[0].Type != model.SanctionWarning {
			t.Fatalf("session %d: expected a warning, got %+v", i, issued)
		}
		if profile.WarningCount != i {
			t.Fatalf("session %d: warning count = %d, want %d", i, profile.WarningCount, i)
		}
	}

	issued := engine.Apply(context.Background(), profile, 30, now)
	if len(issued) != 1 || issued[0].Type != model.SanctionScoreInvalidation {
		t.Fatalf("expected score invalidation past max warnings, got %+v", issued)
	}
	if len(profile.SanctionHistory) != 4 {
		t.Fatalf("history length = %d, want 4", len(profile.SanctionHistory))
	}
}

func TestApplyRestrictedBand(t *testing.T) {
	engine, _ := newSanctionFixture()
	profile := model.NewPlayerProfile("0xabc", time.Now())

	issued := engine.Apply(context.Background(), profile, 15, time.Now())
	if len(issued) != 2 {
		t.Fatalf("expected 2 sanctions, got %d", len(issued))
	}
	types := map[model.SanctionType]bool{}
	for _, s := range issued {
		types[s.Type] = true
	}
	if !types[model.SanctionScoreInvalidation] || !types[model.SanctionLeaderboardRemoval] {
		t.Fatalf("unexpected sanction types: %+v", issued)
	}
}

func TestApplyTempBanEscalation(t *testing.T) {
	engine, _ := newSanctionFixture()
	now := time.Now()
	profile := model.NewPlayerProfile("0xabc", now)
	// Two prior temporary bans already in history.
	profile.SanctionHistory = []model.Sanction{
		{Type: model.SanctionTemporaryBan, Timestamp: now.Add(-60 * 24 * time.Hour)},
		{Type: model.SanctionTemporaryBan, Timestamp: now.Add(-30 * 24 * time.Hour)},
	}

	issued := engine.Apply(context.Background(), profile, 5, now)
	if len(issued) != 1 || issued[0].Type != model.SanctionTemporaryBan {
		t.Fatalf("expected a temporary ban, got %+v", issued)
	}
	if issued[0].ExpiresAt == nil {
		t.Fatal("temporary ban must carry an expiry")
	}
	// Third offense: 3 days.
	want := now.Add(3 * 24 * time.Hour)
	if !issued[0].ExpiresAt.Equal(want) {
		t.Fatalf("expiry = %v, want %v", issued[0].ExpiresAt, want)
	}
}

func TestCheckBanExpiry(t *testing.T) {
	engine, active := newSanctionFixture()
	now := time.Now()
	ctx := context.Background()

	expired := now.Add(-time.Hour)
	active.Append(ctx, "0xabc", model.Sanction{
		ID: "s1", Type: model.SanctionTemporaryBan, Timestamp: now.Add(-25 * time.Hour), ExpiresAt: &expired,
	})

	status, err := engine.CheckBan(ctx, "0xabc", now)
	if err != nil {
		t.Fatalf("CheckBan: %v", err)
	}
	if status.Banned {
		t.Fatal("expired ban still reported active")
	}

	future := now.Add(time.Hour)
	active.Append(ctx, "0xabc", model.Sanction{
		ID: "s2", Type: model.SanctionTemporaryBan, Timestamp: now, ExpiresAt: &future,
	})
	status, err = engine.CheckBan(ctx, "0xabc", now)
	if err != nil {
		t.Fatalf("CheckBan: %v", err)
	}
	if !status.Banned || status.Type != model.SanctionTemporaryBan {
		t.Fatalf("active ban not reported: %+v", status)
	}
	if status.ExpiresAt == nil || !status.ExpiresAt.Equal(future) {
		t.Fatalf("expiry = %v, want %v", status.ExpiresAt, future)
	}

	// Non-ban sanctions never trip the gate.
	status, err = engine.CheckBan(ctx, "0xother", now)
	if err != nil {
		t.Fatalf("CheckBan: %v", err)
	}
	if status.Banned {
		t.Fatal("unknown wallet reported banned")
	}
}

func TestLiftKeepsHistory(t *testing.T) {
	engine, _ := newSanctionFixture()
	now := time.Now()
	profile := model.NewPlayerProfile("0xabc", now)
	ctx := context.Background()

	issued := engine.Apply(ctx, profile, 5, now)
	if len(issued) != 1 {
		t.Fatalf("expected one ban, got %d", len(issued))
	}

	removed, err := engine.Lift(ctx, "0xabc", issued[0].ID, "appeal upheld")
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	if removed == nil || removed.ID != issued[0].ID {
		t.Fatalf("lifted sanction = %+v", removed)
	}

	status, err := engine.CheckBan(ctx, "0xabc", now)
	if err != nil {
		t.Fatalf("CheckBan: %v", err)
	}
	if status.Banned {
		t.Fatal("ban still active after lift")
	}
	if len(profile.SanctionHistory) != 1 {
		t.Fatalf("lift must not touch history, got %d entries", len(profile.SanctionHistory))
	}

	// Lifting a nonexistent sanction is a nil, not an error.
	removed, err = engine.Lift(ctx, "0xabc", "no-such-id", "typo")
	if err != nil || removed != nil {
		t.Fatalf("expected nil/nil for unknown sanction, got %+v, %v", removed, err)
	}
}

func TestCountsByType(t *testing.T) {
	engine, _ := newSanctionFixture()
	now := time.Now()
	profile := model.NewPlayerProfile("0xabc", now)
	ctx := context.Background()

	engine.Apply(ctx, profile, 30, now) // warning
	engine.Apply(ctx, profile, 15, now) // invalidation + leaderboard removal
	engine.Apply(ctx, profile, 5, now)  // temp ban

	counts := engine.CountsByType()
	if counts[model.SanctionWarning] != 1 {
		t.Fatalf("warnings = %d, want 1", counts[model.SanctionWarning])
	}
	if counts[model.SanctionScoreInvalidation] != 1 {
		t.Fatalf("invalidations = %d, want 1", counts[model.SanctionScoreInvalidation])
	}
	if counts[model.SanctionTemporaryBan] != 1 {
		t.Fatalf("bans = %d, want 1", counts[model.SanctionTemporaryBan])
	}
}
