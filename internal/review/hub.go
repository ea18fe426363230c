package review

import (
	"sync"

	"github.com/Tencent/WeKnora/internal/types"
)

// reviewEvent is one SSE frame the pipeline emits for a single review.
type reviewEvent struct {
	Type    types.ReviewEventType
	Payload any
}

// hub fans progress events for one review out to every SSE connection
// currently watching it. The pipeline itself never blocks on a subscriber:
// per §4.14, "the background pipeline continues and updates the persisted
// record" whether or not anyone is listening, so publish drops the event on
// the floor for a slow or absent reader rather than stalling the worker.
type hub struct {
	mu          sync.Mutex
	subscribers map[uint64]map[chan reviewEvent]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[uint64]map[chan reviewEvent]struct{})}
}

// subscribe registers a new listener for reviewID and returns the channel
// plus an unsubscribe func the caller must defer.
func (h *hub) subscribe(reviewID uint64) (chan reviewEvent, func()) {
	ch := make(chan reviewEvent, 32)
	h.mu.Lock()
	set, ok := h.subscribers[reviewID]
	if !ok {
		set = make(map[chan reviewEvent]struct{})
		h.subscribers[reviewID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subscribers[reviewID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subscribers, reviewID)
			}
		}
		close(ch)
	}
}

// publish delivers evt to every current subscriber of reviewID, without
// blocking on a full or abandoned channel.
func (h *hub) publish(reviewID uint64, evt reviewEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[reviewID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
