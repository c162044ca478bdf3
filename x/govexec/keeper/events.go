package keeper

import (
	"context"
	"fmt"
	"strconv"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/pubsub"
	"github.com/tendermint/tendermint/libs/pubsub/query"

	"github.com/confio/tgov/x/govexec/types"
)

// InvalidateEvent tells subscribers that the snapshot of a proposal was replaced
type InvalidateEvent struct {
	Index    uint64
	Command  string
	Snapshot *Snapshot
}

// StateChangedEvent is published on every controller state transition
type StateChangedEvent struct {
	Index   uint64
	Command Command
	State   State
}

// EventBus distributes controller events to subscribers. It must be started before publishing.
type EventBus struct {
	server *pubsub.Server
}

// NewEventBus constructor
func NewEventBus(logger log.Logger) *EventBus {
	s := pubsub.NewServer(pubsub.BufferCapacity(100))
	s.SetLogger(logger.With("module", "events"))
	return &EventBus{server: s}
}

// Start the bus
func (b *EventBus) Start() error {
	return b.server.Start()
}

// Stop the bus. All subscriptions are cancelled.
func (b *EventBus) Stop() error {
	return b.server.Stop()
}

// PublishInvalidate publishes a snapshot replacement of the proposal
func (b *EventBus) PublishInvalidate(ctx context.Context, e InvalidateEvent) error {
	return b.server.PublishWithEvents(ctx, e, map[string][]string{
		types.EventKey(types.EventTypeInvalidate, types.AttributeKeyProposalIndex): {strconv.FormatUint(e.Index, 10)},
		types.EventKey(types.EventTypeInvalidate, types.AttributeKeyCommand):       {e.Command},
	})
}

// PublishStateChanged publishes a controller state transition
func (b *EventBus) PublishStateChanged(ctx context.Context, e StateChangedEvent) error {
	return b.server.PublishWithEvents(ctx, e, map[string][]string{
		types.EventKey(types.EventTypeStateChanged, types.AttributeKeyProposalIndex): {strconv.FormatUint(e.Index, 10)},
		types.EventKey(types.EventTypeStateChanged, types.AttributeKeyCommand):       {e.Command.String()},
		types.EventKey(types.EventTypeStateChanged, types.AttributeKeyState):         {e.State.String()},
	})
}

// SubscribeInvalidations returns a subscription for the snapshot replacements of a proposal
func (b *EventBus) SubscribeInvalidations(ctx context.Context, subscriber string, index uint64) (*pubsub.Subscription, error) {
	return b.subscribe(ctx, subscriber, types.EventTypeInvalidate, index)
}

// SubscribeStateChanges returns a subscription for the controller state transitions of a proposal
func (b *EventBus) SubscribeStateChanges(ctx context.Context, subscriber string, index uint64) (*pubsub.Subscription, error) {
	return b.subscribe(ctx, subscriber, types.EventTypeStateChanged, index)
}

func (b *EventBus) subscribe(ctx context.Context, subscriber, eventType string, index uint64) (*pubsub.Subscription, error) {
	q, err := query.New(fmt.Sprintf("%s = '%d'", types.EventKey(eventType, types.AttributeKeyProposalIndex), index))
	if err != nil {
		return nil, sdkerrors.Wrap(types.ErrInvalid, err.Error())
	}
	return b.server.Subscribe(ctx, subscriber, q, 10)
}

// Unsubscribe removes all subscriptions of the subscriber
func (b *EventBus) Unsubscribe(ctx context.Context, subscriber string) error {
	return b.server.UnsubscribeAll(ctx, subscriber)
}
