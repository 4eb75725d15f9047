package events

import (
	"context"
	"testing"
	"time"

	"learnhub/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx, "test", 4)
	hub.Publish(Event{Type: BadgeEarned, UserID: 7, Data: map[string]any{"badgeName": "First Steps"}})

	select {
	case evt := <-ch:
		assert.Equal(t, BadgeEarned, evt.Type)
		assert.Equal(t, uint(7), evt.UserID)
		assert.Equal(t, "First Steps", evt.String("badgeName"))
		assert.NotZero(t, evt.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx, "test", 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(Event{Type: Enrolled})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, ch, 1)
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	ch := hub.Subscribe(ctx, "test", 1)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestNilHubPublishIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish(Event{Type: CoursePublished}) })
}

func TestSubscribeFiltersByType(t *testing.T) {
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	badges := hub.Subscribe(ctx, "badges", 4, BadgeEarned)
	all := hub.Subscribe(ctx, "all", 4)

	hub.Publish(Event{Type: Enrolled, UserID: 1})
	hub.Publish(Event{Type: BadgeEarned, UserID: 2})

	require.Len(t, badges, 1)
	evt := <-badges
	assert.Equal(t, BadgeEarned, evt.Type)
	assert.Equal(t, uint(2), evt.UserID)
	assert.Len(t, all, 2)
}

func TestDroppedEventsAreCountedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	hub := NewHub(logger.FromZap(zap.New(core)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub.Subscribe(ctx, "slow", 1, Enrolled)
	hub.Subscribe(ctx, "other", 1, BadgeEarned)
	for i := 0; i < 3; i++ {
		hub.Publish(Event{Type: Enrolled, UserID: 9})
	}

	dropped := hub.Dropped()
	assert.Equal(t, uint64(2), dropped["slow"])
	assert.Equal(t, uint64(0), dropped["other"])

	// Only the first miss is logged below the throttle.
	entries := logs.FilterMessage("event dropped for slow subscriber").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "slow", fields["subscriber"])
	assert.EqualValues(t, Enrolled, fields["event"])
	assert.EqualValues(t, 1, fields["dropped"])
}
