package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/google/uuid"
)

// AuditService is the fire-and-forget audit sink: entries go to an in-memory
// ring for quick listing, a daily jsonl file, and (when configured) Postgres.
// A full buffer drops entries rather than blocking scoring.
type AuditService struct {
	logChan chan *model.AuditEvent
	logFile *os.File
	buffer  *auditBuffer
	repo    AuditRepo
}

type AuditRepo interface {
	Insert(ctx context.Context, entry *model.AuditEvent) error
	List(ctx context.Context, wallet string, limit int, from, to *time.Time) ([]*model.AuditEvent, error)
}

func NewAuditService(logDir string, bufferSize int, repo AuditRepo) (*AuditService, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	// Simple daily file rotation
	filename := filepath.Join(logDir, "audit-"+time.Now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	if bufferSize <= 0 {
		bufferSize = 1000
	}
	svc := &AuditService{
		logChan: make(chan *model.AuditEvent, bufferSize),
		logFile: f,
		buffer:  newAuditBuffer(bufferSize),
		repo:    repo,
	}

	go svc.processLogs()

	return svc, nil
}

// Log enqueues an entry. Never blocks; on a full buffer the entry is dropped
// with a warning so scoring is protected.
func (s *AuditService) Log(entry *model.AuditEvent) {
	if s.buffer != nil {
		s.buffer.Add(entry)
	}
	select {
	case s.logChan <- entry:
	default:
		log.Println("audit log buffer full, dropping entry")
	}
}

// LogEngineEvent records an engine decision (sanction, lift, false positive).
// The wallet is stored redacted.
func (s *AuditService) LogEngineEvent(action, wallet string, context map[string]interface{}) {
	s.Log(&model.AuditEvent{
		ID:        uuid.NewString(),
		Action:    action,
		Wallet:    model.RedactWallet(wallet),
		Context:   context,
		CreatedAt: time.Now(),
	})
}

func (s *AuditService) List(ctx context.Context, wallet string, limit int, from, to *time.Time) ([]*model.AuditEvent, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, wallet, limit, from, to)
		if err == nil {
			return records, nil
		}
	}
	if s.buffer == nil {
		return nil, nil
	}
	return s.buffer.List(wallet, limit), nil
}

func (s *AuditService) processLogs() {
	encoder := json.NewEncoder(s.logFile)
	for entry := range s.logChan {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), entry); err != nil {
				log.Printf("failed to write audit event to DB: %v", err)
			}
		}
		if err := encoder.Encode(entry); err != nil {
			log.Printf("failed to write audit event: %v", err)
		}
	}
}

func (s *AuditService) Close() {
	close(s.logChan)
	s.logFile.Close()
}

type auditBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.AuditEvent
	nextIndex int
}

func newAuditBuffer(maxSize int) *auditBuffer {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &auditBuffer{
		maxSize: maxSize,
		records: make([]*model.AuditEvent, 0, maxSize),
	}
}

func (b *auditBuffer) Add(entry *model.AuditEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, entry)
		return
	}
	b.records[b.nextIndex] = entry
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

func (b *auditBuffer) List(wallet string, limit int) []*model.AuditEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	results := make([]*model.AuditEvent, 0, limit)
	total := len(b.records)
	for i := 0; i < total; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		entry := b.records[idx]
		if entry == nil {
			continue
		}
		if wallet != "" && entry.Wallet != wallet {
			continue
		}
		results = append(results, entry)
		if len(results) >= limit {
			break
		}
	}
	return results
}
