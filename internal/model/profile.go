package model

import "time"

// GameRecord is one historical session for a single game type.
type GameRecord struct {
	Score      float64   `json:"score"`
	DurationMs int64     `json:"duration_ms"`
	TrustScore int       `json:"trust_score"`
	Timestamp  time.Time `json:"timestamp"`
}

// PlayerProfile is the decaying per-wallet reputation record.
// Created lazily on the first analysis or ban check for a wallet.
type PlayerProfile struct {
	Wallet          string                  `json:"wallet"`
	FirstSeen       time.Time               `json:"first_seen"`
	LastSeen        time.Time               `json:"last_seen"`
	TrustScore      float64                 `json:"trust_score"` // 0-100, exponential moving average
	GameHistory     map[string][]GameRecord `json:"game_history"`
	SanctionHistory []Sanction              `json:"sanction_history"` // append-only, never evicted
	WarningCount    int                     `json:"warning_count"`
	CleanStreak     int                     `json:"clean_streak"`
	TotalGames      int                     `json:"total_games"`
	Flags           []string                `json:"flags,omitempty"` // manual annotation markers
}

// NewPlayerProfile creates a fresh profile. New wallets start fully trusted.
func NewPlayerProfile(wallet string, now time.Time) *PlayerProfile {
	return &PlayerProfile{
		Wallet:      wallet,
		FirstSeen:   now,
		LastSeen:    now,
		TrustScore:  100,
		GameHistory: make(map[string][]GameRecord),
	}
}

// Clone returns a deep copy so stores can hand out snapshots without
// exposing their internals to concurrent mutation.
func (p *PlayerProfile) Clone() *PlayerProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.GameHistory = make(map[string][]GameRecord, len(p.GameHistory))
	for game, records := range p.GameHistory {
		cp.GameHistory[game] = append([]GameRecord(nil), records...)
	}
	cp.SanctionHistory = append([]Sanction(nil), p.SanctionHistory...)
	cp.Flags = append([]string(nil), p.Flags...)
	return &cp
}

// HasFlag reports whether a manual annotation marker is set.
func (p *PlayerProfile) HasFlag(flag string) bool {
	for _, f := range p.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// SkillProgression is an optional predicted-skill model attached to a
// fingerprint. Default engine logic leaves it unpopulated; external skill
// estimators may fill it in.
type SkillProgression struct {
	PredictedScore float64 `json:"predicted_score"`
	Samples        int     `json:"samples"`
}

// BehaviorFingerprint is the last-observed client signature for a wallet.
// It lives independently of the profile but is co-evicted with it.
type BehaviorFingerprint struct {
	Wallet           string            `json:"wallet"`
	UserAgent        string            `json:"user_agent"`
	ScreenResolution string            `json:"screen_resolution"`
	Timezone         string            `json:"timezone"`
	Language         string            `json:"language"`
	TypicalPlayHours []int             `json:"typical_play_hours"` // hours of day, capped at 24
	InputPattern     InputPattern      `json:"input_pattern"`      // overwritten each session
	Skill            *SkillProgression `json:"skill,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the fingerprint.
func (f *BehaviorFingerprint) Clone() *BehaviorFingerprint {
	if f == nil {
		return nil
	}
	cp := *f
	cp.TypicalPlayHours = append([]int(nil), f.TypicalPlayHours...)
	cp.InputPattern = make(InputPattern, len(f.InputPattern))
	for k, v := range f.InputPattern {
		cp.InputPattern[k] = v
	}
	if f.Skill != nil {
		skill := *f.Skill
		cp.Skill = &skill
	}
	return &cp
}

// HasPlayHour reports whether the given hour of day has been seen before.
func (f *BehaviorFingerprint) HasPlayHour(hour int) bool {
	for _, h := range f.TypicalPlayHours {
		if h == hour {
			return true
		}
	}
	return false
}

// GameBaseline is the global rolling score population for one game type,
// used to contextualize players with insufficient personal history.
type GameBaseline struct {
	GameType string    `json:"game_type"`
	Scores   []float64 `json:"scores"`
	AvgScore float64   `json:"avg_score"`
}
