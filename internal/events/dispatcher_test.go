package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_DeliversInOrderAndSurvivesErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var seen []string
	d.Subscribe(EventSLABreached, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.TicketID)
		return errors.New("smtp down")
	})
	d.Subscribe(EventSLABreached, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.TicketID)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		return nil
	})
	d.Subscribe(EventSLAWarning, func(context.Context, Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventSLABreached, TicketID: "t-1"}))
	assert.Equal(t, []string{"first:t-1", "second:t-1"}, seen)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestActor(t *testing.T) {
	assert.Equal(t, "u-1", UserActor("u-1").ID())
	assert.Equal(t, "s-1", StaffActor("s-1").ID())
	assert.Empty(t, SystemActor.ID())
}
