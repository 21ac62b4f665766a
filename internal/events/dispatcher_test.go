package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishStampsEvent(t *testing.T) {
	d := NewInMemoryDispatcher()

	var seen Event
	d.Subscribe(EventLogout, func(_ context.Context, e Event) error {
		seen = e
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventLogout, SubjectID: "u-1"})
	require.NoError(t, err)
	require.NotEmpty(t, seen.ID)
	require.False(t, seen.Timestamp.IsZero())
	require.Equal(t, "u-1", seen.SubjectID)
}

func TestPublishIsolatesHandlerFailures(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		return errors.New("handler down")
	})
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		calls++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventLoginFailed}))
	require.Equal(t, 1, calls)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventLoginSucceeded}))
}
