package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrPublish wraps any failure to hand a trade event to the channel.
// It is isolated by callers: a publish failure never changes the
// outcome of the trade that produced the event.
var ErrPublish = errors.New("relay: publish failed")

// Publisher broadcasts trade events on the channel, fire-and-forget.
type Publisher struct {
	ch  *Channel
	log *zap.SugaredLogger
}

// NewPublisher creates a publisher over an already-joined channel.
func NewPublisher(ch *Channel, log *zap.SugaredLogger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

// Publish serializes the event and hands it to the topic. No
// acknowledgment, no delivery guarantee.
func (p *Publisher) Publish(ctx context.Context, ev TradeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPublish, err)
	}
	if err := p.ch.topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	p.log.Debugw("trade_event_published", "order_id", ev.OrderID, "user_id", ev.UserID)
	return nil
}
