package keeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestEventBusFiltersByProposal(t *testing.T) {
	bus := NewEventBus(log.TestingLogger())
	require.NoError(t, bus.Start())
	defer bus.Stop()
	ctx := context.Background()
	sub, err := bus.SubscribeInvalidations(ctx, "test", 2)
	require.NoError(t, err)

	// when
	require.NoError(t, bus.PublishInvalidate(ctx, InvalidateEvent{Index: 1, Command: "reload"}))
	require.NoError(t, bus.PublishInvalidate(ctx, InvalidateEvent{Index: 12, Command: "reload"}))
	require.NoError(t, bus.PublishInvalidate(ctx, InvalidateEvent{Index: 2, Command: "vote"}))

	// then
	select {
	case msg := <-sub.Out():
		got := msg.Data().(InvalidateEvent)
		assert.Equal(t, uint64(2), got.Index)
		assert.Equal(t, "vote", got.Command)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	select {
	case msg := <-sub.Out():
		t.Fatalf("unexpected event: %v", msg.Data())
	default:
	}

	// and unsubscribed clients get nothing
	require.NoError(t, bus.Unsubscribe(ctx, "test"))
	select {
	case <-sub.Cancelled():
	case <-time.After(time.Second):
		t.Fatal("subscription not cancelled")
	}
}
