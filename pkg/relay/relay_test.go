package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captureNotifier struct {
	mu    sync.Mutex
	sent  []string
	users []string
	ch    chan struct{}
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{ch: make(chan struct{}, 16)}
}

func (n *captureNotifier) Send(ctx context.Context, userID, text string) error {
	n.mu.Lock()
	n.users = append(n.users, userID)
	n.sent = append(n.sent, text)
	n.mu.Unlock()
	n.ch <- struct{}{}
	return nil
}

func (n *captureNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-n.ch:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func testChannel(t *testing.T) *Channel {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ch, err := NewChannel(ctx, ChannelConfig{
		ListenAddr: "/ip4/127.0.0.1/tcp/0",
		Logger:     zap.NewNop().Sugar(),
	})
	if err != nil {
		t.Fatalf("failed to create channel: %v", err)
	}
	t.Cleanup(func() { ch.Close() })
	return ch
}

func TestFormatAlert(t *testing.T) {
	ev := TradeEvent{Side: "BUY", Size: "10", Price: "0.55", Market: "Will it rain?"}
	got := FormatAlert(ev)
	want := "Trade Alert: BUY 10 @ 0.55 (Will it rain?)"
	if got != want {
		t.Errorf("FormatAlert = %q, want %q", got, want)
	}

	ev.Market = ""
	if got := FormatAlert(ev); got != "Trade Alert: BUY 10 @ 0.55" {
		t.Errorf("FormatAlert without market = %q", got)
	}
}

func TestPublishSubscribe_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := testChannel(t)
	notifier := newCaptureNotifier()

	sub, err := NewSubscriber(ch, notifier, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	go sub.Run(ctx)

	pub := NewPublisher(ch, zap.NewNop().Sugar())
	ev := TradeEvent{
		UserID:  "12345",
		OrderID: "X",
		Side:    "BUY",
		Price:   "0.55",
		Size:    "10",
		Market:  "T1",
	}
	if err := pub.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	notifier.wait(t)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.users[0] != "12345" {
		t.Errorf("alert addressed to %q, want %q", notifier.users[0], "12345")
	}
	if notifier.sent[0] != FormatAlert(ev) {
		t.Errorf("alert text = %q, want %q", notifier.sent[0], FormatAlert(ev))
	}
}

// A malformed payload must be logged and skipped; the subscriber keeps
// consuming and still handles the next valid event.
func TestSubscriber_SkipsMalformedPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := testChannel(t)
	notifier := newCaptureNotifier()

	sub, err := NewSubscriber(ch, notifier, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	go sub.Run(ctx)

	if err := ch.topic.Publish(ctx, []byte("not json at all")); err != nil {
		t.Fatalf("publish raw: %v", err)
	}

	pub := NewPublisher(ch, zap.NewNop().Sugar())
	ev := TradeEvent{UserID: "77", OrderID: "Y", Side: "SELL", Price: "0.4", Size: "3"}
	if err := pub.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	notifier.wait(t)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.sent) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.sent))
	}
	if notifier.users[0] != "77" {
		t.Errorf("alert addressed to %q, want %q", notifier.users[0], "77")
	}
}
