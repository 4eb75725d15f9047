package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"learnhub/logger"
)

type Type string

const (
	CertificateIssued Type = "certificate.issued"
	Enrolled          Type = "course.enrolled"
	CoursePublished   Type = "course.published"
	BadgeEarned       Type = "badge.earned"
)

type Event struct {
	Type      Type           `json:"type"`
	Timestamp int64          `json:"timestamp"`
	UserID    uint           `json:"userId,omitempty"`
	CourseID  uint           `json:"courseId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// String reads a string field from Data, returning "" when absent.
func (e Event) String(key string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}

// Publisher is what services depend on. A nil Hub is a valid no-op publisher.
type Publisher interface {
	Publish(evt Event)
}

type subscription struct {
	name    string
	ch      chan Event
	types   map[Type]struct{}
	dropped atomic.Uint64
}

func (s *subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

type Hub struct {
	log  *logger.Logger
	mu   sync.RWMutex
	subs map[*subscription]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{log: log.Service("events"), subs: make(map[*subscription]struct{})}
}

// dropLogEvery throttles the warning for a subscriber that keeps falling behind.
const dropLogEvery = 100

// Publish never blocks. A subscriber whose buffer is full misses the event and
// the miss is counted and logged.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.wants(evt.Type) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			n := sub.dropped.Add(1)
			if n == 1 || n%dropLogEvery == 0 {
				h.log.Warn("event dropped for slow subscriber",
					"subscriber", sub.name,
					"event", evt.Type,
					"userId", evt.UserID,
					"dropped", n,
				)
			}
		}
	}
}

// Subscribe registers a buffered channel that is closed when ctx ends. With no
// types the subscriber receives every event.
func (h *Hub) Subscribe(ctx context.Context, name string, buffer int, types ...Type) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscription{name: name, ch: make(chan Event, buffer)}
	if len(types) > 0 {
		sub.types = make(map[Type]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

// Dropped reports missed events per live subscriber name.
func (h *Hub) Dropped() map[string]uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]uint64, len(h.subs))
	for sub := range h.subs {
		out[sub.name] += sub.dropped.Load()
	}
	return out
}

// Discard drops every event.
var Discard Publisher = (*Hub)(nil)
