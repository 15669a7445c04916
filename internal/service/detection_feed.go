package service

import (
	"sync"

	"github.com/TrustArcade/trustgate/internal/model"
)

// DetectionFeed fans detection entries out to live subscribers (the operator
// websocket). Slow subscribers lose entries rather than backpressuring the
// engine.
type DetectionFeed struct {
	mu   sync.Mutex
	subs map[chan model.DetectionLogEntry]struct{}
}

func NewDetectionFeed() *DetectionFeed {
	return &DetectionFeed{subs: make(map[chan model.DetectionLogEntry]struct{})}
}

// Subscribe registers a new listener. Call the returned cancel func to
// unsubscribe and close the channel.
func (f *DetectionFeed) Subscribe() (<-chan model.DetectionLogEntry, func()) {
	ch := make(chan model.DetectionLogEntry, 32)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an entry to every subscriber, dropping for full buffers.
func (f *DetectionFeed) Publish(entry model.DetectionLogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}
