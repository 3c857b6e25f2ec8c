package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversTypedEnvelope(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Emit(TypeListingAdded, map[string]any{"title": "Engineer"})

	select {
	case evt := <-ch:
		assert.Equal(t, TypeListingAdded, evt.Type)
		assert.False(t, evt.At.IsZero())
		assert.JSONEq(t, `{"title":"Engineer"}`, string(evt.Data))
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestHubDropsWhenSubscriberLagsBehind(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// never reading, so the buffer fills and later events are shed
	for i := 0; i < 25; i++ {
		h.Emit(TypeRunStarted, nil)
	}
	assert.Equal(t, cap(ch), len(ch), "a lagging subscriber keeps only a buffer's worth")

	evt := <-ch
	assert.Equal(t, TypeRunStarted, evt.Type)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	_, open := <-ch
	require.False(t, open)

	// emitting after unsubscribe must not panic on the closed channel
	h.Emit(TypeRunFinished, nil)
}
