package service

import (
	"context"
	"testing"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
)

func TestAuditServiceBufferAndList(t *testing.T) {
	svc, err := NewAuditService(t.TempDir(), 8, nil)
	if err != nil {
		t.Fatalf("NewAuditService: %v", err)
	}
	defer svc.Close()

	svc.LogEngineEvent(model.AuditSanctionIssued, "0xaaa", map[string]interface{}{"type": "warning"})
	svc.LogEngineEvent(model.AuditSanctionIssued, "0xbbb", map[string]interface{}{"type": "temporary_ban"})
	svc.LogEngineEvent(model.AuditSanctionLifted, "0xaaa", map[string]interface{}{"reason": "appeal"})

	entries, err := svc.List(context.Background(), "", 10, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Action != model.AuditSanctionLifted {
		t.Fatalf("first entry action = %v, want lift", entries[0].Action)
	}

	filtered, err := svc.List(context.Background(), "0xaaa", 10, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("filtered entries = %d, want 2", len(filtered))
	}
	for _, e := range filtered {
		if e.Wallet != "0xaaa" {
			t.Fatalf("wallet filter leaked entry for %q", e.Wallet)
		}
	}
}

func TestAuditBufferEvictsOldest(t *testing.T) {
	buf := newAuditBuffer(2)
	buf.Add(&model.AuditEvent{ID: "1"})
	buf.Add(&model.AuditEvent{ID: "2"})
	buf.Add(&model.AuditEvent{ID: "3"})

	entries := buf.List("", 10)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ID != "3" || entries[1].ID != "2" {
		t.Fatalf("unexpected order: %v, %v", entries[0].ID, entries[1].ID)
	}
}

func TestDetectionFeedFanOut(t *testing.T) {
	feed := NewDetectionFeed()
	ch, cancel := feed.Subscribe()

	feed.Publish(model.DetectionLogEntry{SessionID: "s1"})

	select {
	case entry := <-ch:
		if entry.SessionID != "s1" {
			t.Fatalf("entry = %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("no entry delivered")
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after cancel must not panic.
	feed.Publish(model.DetectionLogEntry{SessionID: "s2"})
	// Double cancel is safe.
	cancel()
}
