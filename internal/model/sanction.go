package model

import "time"

type SanctionType string

const (
	SanctionWarning            SanctionType = "warning"
	SanctionScoreInvalidation  SanctionType = "score_invalidation"
	SanctionTemporaryBan       SanctionType = "temporary_ban"
	SanctionPermanentBan       SanctionType = "permanent_ban"
	SanctionLeaderboardRemoval SanctionType = "leaderboard_removal"
)

// Sanction is an enforcement action. Immutable once created.
type Sanction struct {
	ID        string       `json:"id"`
	Type      SanctionType `json:"type"`
	Reason    string       `json:"reason"`
	Automated bool         `json:"automated"`
	Timestamp time.Time    `json:"timestamp"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"` // nil = no expiry
}

// ActiveAt reports whether the sanction is still in force at the given time.
func (s *Sanction) ActiveAt(now time.Time) bool {
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// IsBan reports whether the sanction blocks play entirely.
func (s *Sanction) IsBan() bool {
	return s.Type == SanctionTemporaryBan || s.Type == SanctionPermanentBan
}

type TrustStatus string

const (
	StatusTrusted    TrustStatus = "trusted"
	StatusNormal     TrustStatus = "normal"
	StatusSuspicious TrustStatus = "suspicious"
	StatusFlagged    TrustStatus = "flagged"
	StatusRestricted TrustStatus = "restricted"
	StatusBanned     TrustStatus = "banned"
)

// Session trust score thresholds. Bands are contiguous and exhaustive;
// the status is the first threshold met from the top.
const (
	ThresholdTrusted    = 89
	ThresholdNormal     = 55
	ThresholdSuspicious = 34
	ThresholdFlagged    = 21
	ThresholdRestricted = 13
)

// StatusForScore maps a session trust score to its classification band.
func StatusForScore(score int) TrustStatus {
	switch {
	case score >= ThresholdTrusted:
		return StatusTrusted
	case score >= ThresholdNormal:
		return StatusNormal
	case score >= ThresholdSuspicious:
		return StatusSuspicious
	case score >= ThresholdFlagged:
		return StatusFlagged
	case score >= ThresholdRestricted:
		return StatusRestricted
	default:
		return StatusBanned
	}
}

// BanStatus is the answer to a pre-submission ban check.
type BanStatus struct {
	Banned    bool         `json:"banned"`
	Type      SanctionType `json:"type,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// ProfileSummary is the read-only view served to player-facing status pages.
type ProfileSummary struct {
	Found           bool        `json:"found"`
	Wallet          string      `json:"wallet,omitempty"`
	TrustScore      int         `json:"trust_score,omitempty"`
	Status          TrustStatus `json:"status,omitempty"`
	TotalGames      int         `json:"total_games,omitempty"`
	CleanStreak     int         `json:"clean_streak,omitempty"`
	WarningCount    int         `json:"warning_count,omitempty"`
	ActiveSanctions []Sanction  `json:"active_sanctions,omitempty"`
	MemberSince     *time.Time  `json:"member_since,omitempty"`
}

// DetectionLogEntry is one row of the bounded operator audit trail, written
// whenever a session scores below the normal threshold. The wallet is stored
// redacted.
type DetectionLogEntry struct {
	Wallet     string         `json:"wallet"`
	SessionID  string         `json:"session_id"`
	GameType   string         `json:"game_type"`
	TrustScore int            `json:"trust_score"`
	Status     TrustStatus    `json:"status"`
	Factors    string         `json:"factors"`
	Sanctions  []SanctionType `json:"sanctions,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// GlobalStats are the aggregate counters exposed to operators.
type GlobalStats struct {
	TotalAnalyses      int64                  `json:"total_analyses"`
	SuspiciousSessions int64                  `json:"suspicious_sessions"`
	AvgTrustScore      float64                `json:"avg_trust_score"`
	SanctionsByType    map[SanctionType]int64 `json:"sanctions_by_type"`
	TrackedProfiles    int                    `json:"tracked_profiles"`
	ActiveSanctions    int                    `json:"active_sanctions"`
}

// RedactWallet truncates a wallet address for log and detection storage.
func RedactWallet(wallet string) string {
	if len(wallet) <= 12 {
		return wallet
	}
	return wallet[:8] + "…" + wallet[len(wallet)-4:]
}
