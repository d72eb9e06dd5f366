package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesEverySubscriber(t *testing.T) {
	h := NewHub()
	a, cleanA := h.Subscribe("u1")
	defer cleanA()
	b, cleanB := h.Subscribe("u1")
	defer cleanB()
	other, cleanOther := h.Subscribe("u2")
	defer cleanOther()

	h.Publish("u1", Event{Event: "notification", Data: "hello"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, "u1", ev.UserID)
			assert.Equal(t, "hello", ev.Data)
		default:
			t.Fatal("expected event")
		}
	}
	assert.Empty(t, other)
	assert.Equal(t, 3, h.TotalSubscribers())
}

func TestHub_DropsWhenFull(t *testing.T) {
	var dropped []string
	h := NewHub(WithBufferSize(1), WithDropHandler(func(userID string) { dropped = append(dropped, userID) }))
	_, cleanup := h.Subscribe("u1")
	defer cleanup()

	h.Publish("u1", Event{Event: "a"})
	h.Publish("u1", Event{Event: "b"})

	assert.Equal(t, []string{"u1"}, dropped)
}

func TestHub_CleanupIsIdempotent(t *testing.T) {
	h := NewHub()
	ch, cleanup := h.Subscribe("u1")
	require.Equal(t, 1, h.SubscriberCount("u1"))

	cleanup()
	cleanup()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.SubscriberCount("u1"))
	h.PublishToMany([]string{"u1"}, Event{Event: "late"})
}
