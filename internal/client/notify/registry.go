// Package notify provides the single in-process event registry. Components
// publish updates (sync completions, caching progress) and any number of
// subscribers receive them over channels. The registry is owned by the app
// and injected as a dependency; there are no package-level singletons.
package notify

import "sync"

// Topics published by the client components.
const (
	TopicSyncCompleted    = "sync.completed"
	TopicCachingProgress  = "pdfcache.progress"
	TopicPrefetchFinished = "prefetch.finished"
)

// Event is one published update.
type Event struct {
	Topic   string
	Payload any
}

type subscriber struct {
	topic string
	ch    chan Event
}

// Registry is a minimal publish/subscribe hub. Publishing never blocks: a
// subscriber that falls behind loses events rather than stalling the
// publisher.
type Registry struct {
	mu       sync.Mutex
	subs     map[int]*subscriber
	next     int
	disposed bool
}

// NewRegistry returns an initialized registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[int]*subscriber)}
}

// Subscribe registers for events on the given topic ("" receives every
// topic). The returned cancel function removes the subscription and closes
// the channel; it is safe to call more than once.
func (r *Registry) Subscribe(topic string) (<-chan Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Event, 16)
	if r.disposed {
		close(ch)
		return ch, func() {}
	}

	id := r.next
	r.next++
	r.subs[id] = &subscriber{topic: topic, ch: ch}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if s, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(s.ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the event to every matching subscriber without blocking.
func (r *Registry) Publish(topic string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}

	ev := Event{Topic: topic, Payload: payload}
	for _, s := range r.subs {
		if s.topic != "" && s.topic != topic {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}

// Dispose closes every subscription. Further publishes are no-ops and
// further subscriptions receive an already-closed channel.
func (r *Registry) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	r.disposed = true
	for id, s := range r.subs {
		delete(r.subs, id)
		close(s.ch)
	}
}
