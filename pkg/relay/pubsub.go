package relay

import (
	"context"

	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

// Channel is a joined gossipsub topic shared by the publisher and any
// number of subscribers. There is no persistence and no delivery
// guarantee: a subscriber only sees messages broadcast while it is
// connected.
type Channel struct {
	h     host.Host
	ps    *pubsub.PubSub
	topic *pubsub.Topic
	log   *zap.SugaredLogger
}

// ChannelConfig configures the pubsub channel.
type ChannelConfig struct {
	ListenAddr string   // multiaddr to listen on, empty for defaults
	Bootstrap  []string // peers to dial at startup, best-effort
	Topic      string   // defaults to DefaultTopic
	Logger     *zap.SugaredLogger
}

// NewChannel starts a libp2p host, joins the trade topic, and dials
// any bootstrap peers.
func NewChannel(ctx context.Context, cfg ChannelConfig) (*Channel, error) {
	var opts []libp2p.Option
	if cfg.ListenAddr != "" {
		maddr, err := ma.NewMultiaddr(cfg.ListenAddr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, libp2p.ListenAddrs(maddr))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, err
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, err
	}

	name := cfg.Topic
	if name == "" {
		name = DefaultTopic
	}
	topic, err := ps.Join(name)
	if err != nil {
		h.Close()
		return nil, err
	}

	ch := &Channel{h: h, ps: ps, topic: topic, log: cfg.Logger}

	for _, bs := range cfg.Bootstrap {
		if err := connectMultiaddr(ctx, h, bs); err != nil && cfg.Logger != nil {
			cfg.Logger.Warnw("bootstrap_connect_failed", "addr", bs, "err", err)
		}
	}

	if cfg.Logger != nil {
		cfg.Logger.Infow("relay_channel_ready",
			"peer", h.ID().String(),
			"topic", name,
			"listen", cfg.ListenAddr)
	}
	return ch, nil
}

func connectMultiaddr(ctx context.Context, h host.Host, addr string) error {
	m, err := ma.NewMultiaddr(addr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(m)
	if err != nil {
		return err
	}
	return h.Connect(ctx, *info)
}

// Subscribe returns a fresh subscription on the trade topic.
func (c *Channel) Subscribe() (*pubsub.Subscription, error) {
	return c.topic.Subscribe()
}

// Host exposes the underlying libp2p host (peer addresses for
// bootstrapping other nodes).
func (c *Channel) Host() host.Host { return c.h }

// Close tears down the topic and the host.
func (c *Channel) Close() error {
	if err := c.topic.Close(); err != nil {
		return err
	}
	return c.h.Close()
}
