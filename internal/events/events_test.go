package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe("session.closed", func(e Event) {
		got = append(got, e)
	})
	bus.Subscribe("session.closed", func(e Event) {
		got = append(got, e)
	})

	bus.Publish("session.closed", map[string]string{"station_id": "ps5-1"})

	require.Len(t, got, 2)
	assert.Equal(t, "session.closed", got[0].Type)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(got[0].Payload, &payload))
	assert.Equal(t, "ps5-1", payload["station_id"])
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestBusIgnoresUnrelatedTypes(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe("session.started", func(Event) { called = true })

	bus.Publish("session.closed", struct{}{})
	assert.False(t, called)
}

func TestBusNoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() { bus.Publish("session.started", struct{}{}) })
}
