package relay

import (
	"context"
	"encoding/json"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"go.uber.org/zap"
)

// Notifier forwards a human-readable alert to a user through an
// external transport. Best-effort; failures are logged, not retried.
type Notifier interface {
	Send(ctx context.Context, userID, text string) error
}

// Subscriber is a long-lived consumer of the trade channel. It decodes
// each event and forwards an alert to the originating user. Delivery is
// at-most-once: there is no cursor, only messages received while the
// subscription is live are seen.
type Subscriber struct {
	sub      *pubsub.Subscription
	notifier Notifier
	log      *zap.SugaredLogger
}

// NewSubscriber subscribes to the channel and wires the notifier.
func NewSubscriber(ch *Channel, notifier Notifier, log *zap.SugaredLogger) (*Subscriber, error) {
	sub, err := ch.Subscribe()
	if err != nil {
		return nil, err
	}
	return &Subscriber{sub: sub, notifier: notifier, log: log}, nil
}

// Run processes messages one at a time in arrival order until ctx is
// cancelled or the subscription closes. A malformed payload or a failed
// notification is logged and skipped; the loop never terminates on a
// per-message failure.
func (s *Subscriber) Run(ctx context.Context) {
	for {
		msg, err := s.sub.Next(ctx)
		if err != nil {
			// Subscription closed or context cancelled.
			s.log.Infow("subscriber_stopped", "reason", err)
			return
		}

		var ev TradeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.log.Errorw("trade_event_decode_failed", "err", err, "payload_len", len(msg.Data))
			continue
		}

		if err := s.notifier.Send(ctx, ev.UserID, FormatAlert(ev)); err != nil {
			s.log.Errorw("trade_alert_send_failed",
				"user_id", ev.UserID,
				"order_id", ev.OrderID,
				"err", err)
			continue
		}

		s.log.Infow("trade_alert_sent", "user_id", ev.UserID, "order_id", ev.OrderID)
	}
}

// Cancel releases the subscription, stopping Run.
func (s *Subscriber) Cancel() { s.sub.Cancel() }
