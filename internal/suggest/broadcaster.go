package suggest

import (
	"time"

	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
)

// Broadcaster records a publish as the session's latest payload and fans it
// out to every open subscriber. Delivery is fire-and-forget: a subscriber
// whose Send fails is pruned and the remaining subscribers still receive
// the event. The publisher is never told which deliveries succeeded.
type Broadcaster struct {
	feed     Feed
	registry *Registry
}

func NewBroadcaster(feed Feed, registry *Registry) *Broadcaster {
	return &Broadcaster{
		feed:     feed,
		registry: registry,
	}
}

func (b *Broadcaster) Feed() Feed {
	return b.feed
}

func (b *Broadcaster) Registry() *Registry {
	return b.registry
}

// Publish stamps the payload timestamp when the caller left it unset,
// stores it as latest, then pushes the serialized event to all current
// subscribers of the session.
func (b *Broadcaster) Publish(sessionID string, p Payload) {
	if p.Timestamp == "" {
		p.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	b.registry.SetLatest(sessionID, p)

	data, err := b.feed.EncodePayload(p)
	if err != nil {
		logger.ErrorF("[%s] Fail to encode %s payload, details: %v", sessionID, b.feed.Name, err)
		return
	}

	for _, sub := range b.registry.Subscribers(sessionID) {
		if err := sub.Send(data); err != nil {
			logger.WarnF("[%s] Fail to push %s event, dropping subscriber, details: %v", sessionID, b.feed.Name, err)
			b.registry.RemoveSubscriber(sessionID, sub)
		}
	}

	logger.DebugF("[%s] Published %d %s item(s) to %d subscriber(s)", sessionID, len(p.Items), b.feed.Name, b.registry.SubscriberCount(sessionID))
}
