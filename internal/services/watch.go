package services

import (
	"sync"

	"github.com/parley-labs/parley/internal/logstore"
)

// watchHub fans appended entries out to per-topic subscribers. Slow
// subscribers drop entries rather than block an append.
type watchHub struct {
	mu   sync.Mutex
	subs map[string]map[chan logstore.Entry]struct{}
}

func newWatchHub() *watchHub {
	return &watchHub{subs: make(map[string]map[chan logstore.Entry]struct{})}
}

func (h *watchHub) subscribe(topic string) (<-chan logstore.Entry, func()) {
	ch := make(chan logstore.Entry, 16)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan logstore.Entry]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[topic]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, topic)
				}
			}
		}
	}
	return ch, cancel
}

func (h *watchHub) notify(topic string, entry logstore.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[topic] {
		select {
		case ch <- entry:
		default: // subscriber is not keeping up
		}
	}
}
