package model

import (
	"time"
)

// Engine-level audit actions.
const (
	AuditSanctionIssued = "sanction_issued"
	AuditSanctionLifted = "sanction_lifted"
	AuditFalsePositive  = "false_positive_reported"
	AuditHTTPRequest    = "http_request"
)

// AuditEvent is one entry of the append-only operational audit trail.
// HTTP requests and engine decisions (sanctions, lifts, false-positive
// reports) share the same shape; engine events leave the HTTP fields empty.
type AuditEvent struct {
	ID     string `json:"id" gorm:"primaryKey"`
	Action string `json:"action" gorm:"index"`
	Wallet string `json:"wallet,omitempty" gorm:"index"` // redacted form

	// HTTP request fields
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
	IP         string `json:"ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`

	RequestBody  string `json:"request_body,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`

	// Business context (sanction type, reason, trust score, ...)
	Context map[string]interface{} `json:"context,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// APIClient is an authenticated consumer of the gateway (a game backend or
// an internal service).
type APIClient struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	ApiKey string          `json:"api_key"`
	Rate   RateLimitConfig `json:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket.
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}
