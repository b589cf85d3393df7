// Package events fans pipeline progress out to subscribers. Topics are
// keyed by export id so concurrent exports never cross-deliver.
package events

import "sync"

// Event is one progress milestone from a pipeline run. Percent values
// are coarse, monotonically non-decreasing UI hints.
type Event struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	URL     string `json:"url,omitempty"`
	IsMock  bool   `json:"is_mock,omitempty"`
	Error   string `json:"error,omitempty"`
}

const subscriberBuffer = 64

type Bus struct {
	mu     sync.Mutex
	topics map[string]map[chan Event]struct{}
}

func NewBus() *Bus {
	return &Bus{topics: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers for one export's events. The returned cancel
// func must be called when the consumer is done; it closes the channel.
func (b *Bus) Subscribe(exportID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	subs, ok := b.topics[exportID]
	if !ok {
		subs = make(map[chan Event]struct{})
		b.topics[exportID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	// Whoever removes the channel from the topic map closes it, so a
	// cancel racing CloseTopic never double-closes.
	cancel := func() {
		removed := false
		b.mu.Lock()
		if subs, ok := b.topics[exportID]; ok {
			if _, present := subs[ch]; present {
				delete(subs, ch)
				removed = true
			}
			if len(subs) == 0 {
				delete(b.topics, exportID)
			}
		}
		b.mu.Unlock()
		if removed {
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of the export id. A
// slow subscriber whose buffer is full misses the event rather than
// stalling the pipeline.
func (b *Bus) Publish(exportID string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.topics[exportID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// CloseTopic drops all subscribers for a finished export.
func (b *Bus) CloseTopic(exportID string) {
	b.mu.Lock()
	subs := b.topics[exportID]
	delete(b.topics, exportID)
	b.mu.Unlock()

	for ch := range subs {
		close(ch)
	}
}
