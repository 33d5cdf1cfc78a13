package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/utils"
)

// SubscribeChanges opens a pub/sub subscription on the owner's change
// channel and invokes onAny for every message. The payload ("insert"
// or "delete") is deliberately ignored: subscribers reconcile by
// reloading the full record set.
func (s *Store) SubscribeChanges(ownerID string, onAny func()) (backend.Unsubscribe, error) {
	ctx := context.Background()

	pubsub := s.client.Subscribe(ctx, ChangesChannel(ownerID))
	// Confirm the subscription before handing back the handle so a
	// broken connection fails activation instead of silently dropping
	// every notification.
	if _, err := pubsub.Receive(ctx); err != nil {
		utils.Close(pubsub)
		return nil, fmt.Errorf("%w: failed to subscribe to changes: %v", domain.ErrQuery, err)
	}

	go func() {
		for range pubsub.Channel() {
			onAny()
		}
	}()

	var once sync.Once
	return func() {
		// Closing the PubSub ends the channel and the goroutine above.
		once.Do(func() { utils.Close(pubsub) })
	}, nil
}
