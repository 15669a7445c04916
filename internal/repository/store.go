// Package repository defines the storage interfaces behind the trust engine
// and provides in-memory, Redis and Postgres implementations. The engine is
// wired against these interfaces so deployments can externalize state without
// touching scoring logic.
package repository

import (
	"context"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
)

// ProfileStore holds per-wallet reputation records.
// Implementations hand out deep copies; callers write back via Upsert.
type ProfileStore interface {
	Get(ctx context.Context, wallet string) (*model.PlayerProfile, error)
	Upsert(ctx context.Context, profile *model.PlayerProfile) error
	Delete(ctx context.Context, wallet string) error
	Count(ctx context.Context) (int, error)
	// PruneBefore drops profiles whose LastSeen predates cutoff and returns
	// the evicted wallets so paired state can be cleaned up.
	PruneBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// FingerprintStore holds per-wallet behavioral fingerprints.
type FingerprintStore interface {
	Get(ctx context.Context, wallet string) (*model.BehaviorFingerprint, error)
	Upsert(ctx context.Context, fp *model.BehaviorFingerprint) error
	Delete(ctx context.Context, wallet string) error
}

// BaselineStore holds the global per-game-type score populations.
type BaselineStore interface {
	Get(ctx context.Context, gameType string) (*model.GameBaseline, error)
	Add(ctx context.Context, gameType string, score float64) error
}

// SanctionStore is the global active-sanctions table: wallet -> sanctions.
// Lifted or swept sanctions disappear from here but stay in the profile's
// permanent history.
type SanctionStore interface {
	Append(ctx context.Context, wallet string, s model.Sanction) error
	List(ctx context.Context, wallet string) ([]model.Sanction, error)
	Remove(ctx context.Context, wallet, id string) (*model.Sanction, error)
	// Sweep drops expired entries and empty buckets, returning how many
	// sanctions were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
	CountActive(ctx context.Context, now time.Time) (int, error)
}

// DetectionStore is the bounded operator audit trail of sub-normal sessions.
type DetectionStore interface {
	Append(ctx context.Context, entry model.DetectionLogEntry) error
	Recent(ctx context.Context, limit int) ([]model.DetectionLogEntry, error)
}
