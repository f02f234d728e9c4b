package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flightwx/skybrief/pkg/logger"
)

func TestClientWatchFiltering(t *testing.T) {
	s := NewServer(logger.NewNop())
	c := &Client{server: s, send: make(chan *Message, 1)}

	// No filter set: everything passes.
	assert.True(t, c.watchesAirport("KJFK"))

	c.updateWatched(map[string]any{"airports": []any{"kjfk", "EGLL"}})
	assert.True(t, c.watchesAirport("KJFK"), "codes are case-insensitive")
	assert.True(t, c.watchesAirport("EGLL"))
	assert.False(t, c.watchesAirport("KLAX"))

	// Empty list clears the filter.
	c.updateWatched(map[string]any{"airports": []any{}})
	assert.True(t, c.watchesAirport("KLAX"))
}

func TestShouldSendToClient(t *testing.T) {
	s := NewServer(logger.NewNop())
	c := &Client{server: s, send: make(chan *Message, 1)}
	c.updateWatched(map[string]any{"airports": []any{"KJFK"}})

	briefingMsg := &Message{Type: MessageTypeBriefingComplete, Data: map[string]any{}}
	assert.True(t, s.shouldSendToClient(c, briefingMsg), "briefing events always broadcast")

	watched := &Message{Type: MessageTypeWeatherObservation, Data: map[string]any{"airport_code": "KJFK"}}
	assert.True(t, s.shouldSendToClient(c, watched))

	unwatched := &Message{Type: MessageTypeWeatherObservation, Data: map[string]any{"airport_code": "KLAX"}}
	assert.False(t, s.shouldSendToClient(c, unwatched))

	noCode := &Message{Type: MessageTypeWeatherObservation, Data: map[string]any{}}
	assert.True(t, s.shouldSendToClient(c, noCode), "unfilterable messages are sent")
}
