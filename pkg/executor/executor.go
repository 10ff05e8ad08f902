// Package executor runs the order-execution pipeline: rehydrate a
// signing credential from its vault-encrypted key, normalize the order
// to the venue's fixed-point wire format, submit it, and broadcast a
// trade event on success.
package executor

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradevault/relay/pkg/relay"
	"github.com/tradevault/relay/pkg/vault"
	"github.com/tradevault/relay/pkg/venue"
	"github.com/tradevault/relay/pkg/wallet"
)

// ErrInvalidOrder reports order parameters outside the accepted
// domain: negative or overflowing price/size, unknown side, missing
// token. Rejected before any venue traffic.
var ErrInvalidOrder = errors.New("executor: invalid order")

// fixedPointScale is the venue's decimal shift: price and size travel
// as integers scaled by 10^6.
const fixedPointScale = 6

// publishRetries bounds the background publish retry loop.
const publishRetries = 5

// MarketOrder is a desired trade in human decimal units.
type MarketOrder struct {
	TokenID string
	Price   decimal.Decimal
	Size    decimal.Decimal
	Side    venue.Side
	Market  string // human-readable market description, carried into the trade event
}

// OrderResult is returned to the caller on venue success. There is no
// intermediate or pending state.
type OrderResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

// Venue submits signed orders to the external matching venue.
type Venue interface {
	SubmitOrder(ctx context.Context, order venue.OrderRequest) (string, error)
}

// Publisher broadcasts a trade event. Failures are isolated from the
// order result.
type Publisher interface {
	Publish(ctx context.Context, ev relay.TradeEvent) error
}

// TradeRecorder appends an executed trade to durable history.
// Best-effort, like publishing.
type TradeRecorder interface {
	RecordTrade(ev relay.TradeEvent) error
}

// Deps are the executor's collaborators, passed explicitly.
type Deps struct {
	Vault     *vault.Vault
	Venue     Venue
	Publisher Publisher
	Trades    TradeRecorder // optional
	Nonces    *NonceAllocator
	Logger    *zap.SugaredLogger
}

// Executor coordinates one order execution per call. Calls are
// independent; the nonce allocator is the only state shared between
// them.
type Executor struct {
	vault  *vault.Vault
	venue  Venue
	pub    Publisher
	trades TradeRecorder
	nonces *NonceAllocator
	log    *zap.SugaredLogger

	background sync.WaitGroup
}

// New wires an Executor from its dependencies.
func New(d Deps) *Executor {
	return &Executor{
		vault:  d.Vault,
		venue:  d.Venue,
		pub:    d.Publisher,
		trades: d.Trades,
		nonces: d.Nonces,
		log:    d.Logger,
	}
}

// ExecuteOrder decrypts the user's signing key, signs and submits the
// order, and on success returns the venue order ID and broadcasts a
// trade event in the background.
//
// Vault errors and venue errors propagate to the caller. A publish
// failure never does: a trade that succeeded on the venue is reported
// as a success regardless of what happens to its event.
func (e *Executor) ExecuteOrder(ctx context.Context, encryptedKey string, order MarketOrder, userID string) (OrderResult, error) {
	if !order.Side.Valid() {
		return OrderResult{}, fmt.Errorf("%w: side %q", ErrInvalidOrder, order.Side)
	}
	if order.TokenID == "" {
		return OrderResult{}, fmt.Errorf("%w: missing token id", ErrInvalidOrder)
	}

	priceMicros, err := scaleToMicros(order.Price)
	if err != nil {
		return OrderResult{}, fmt.Errorf("price: %w", err)
	}
	sizeMicros, err := scaleToMicros(order.Size)
	if err != nil {
		return OrderResult{}, fmt.Errorf("size: %w", err)
	}

	cred, err := e.buildSigningCredential(encryptedKey)
	if err != nil {
		return OrderResult{}, err
	}
	defer cred.Destroy()

	req := venue.OrderRequest{
		TokenID:  order.TokenID,
		Price:    priceMicros,
		Size:     sizeMicros,
		Side:     order.Side,
		Nonce:    e.nonces.Next(cred.Address()),
		ClientID: uuid.NewString(),
		Owner:    cred.Address().Hex(),
	}

	sig, err := cred.SignDigest(req.Digest())
	if err != nil {
		return OrderResult{}, err
	}
	req.Signature = hex.EncodeToString(sig)

	// The key material is not needed past this point; drop it before
	// the network call instead of waiting for the deferred release.
	cred.Destroy()

	orderID, err := e.venue.SubmitOrder(ctx, req)
	if err != nil {
		return OrderResult{}, err
	}

	e.log.Infow("order_executed",
		"user_id", userID,
		"order_id", orderID,
		"token_id", order.TokenID,
		"side", order.Side,
		"nonce", req.Nonce)

	e.dispatchTradeEvent(relay.TradeEvent{
		UserID:  userID,
		OrderID: orderID,
		Side:    string(order.Side),
		Price:   order.Price.String(),
		Size:    order.Size.String(),
		Market:  order.Market,
	})

	return OrderResult{Success: true, OrderID: orderID}, nil
}

// buildSigningCredential rehydrates a transient credential from the
// encrypted key. Vault errors propagate unchanged so callers can
// distinguish a malformed secret from a failed integrity check.
func (e *Executor) buildSigningCredential(encryptedKey string) (*wallet.Credential, error) {
	plaintext, err := e.vault.Decrypt(encryptedKey)
	if err != nil {
		return nil, err
	}
	return wallet.FromPrivateKeyHex(plaintext)
}

// scaleToMicros converts a decimal value to a 1e6-scaled integer,
// truncating toward zero. 0.1234567 becomes 123456: the seventh
// decimal digit is discarded, not rounded, a systematic downward bias
// the venue wire format expects. Negative values are out of domain.
func scaleToMicros(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative value %s", ErrInvalidOrder, d)
	}
	scaled := d.Shift(fixedPointScale).Truncate(0)
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: value %s overflows fixed-point range", ErrInvalidOrder, d)
	}
	return scaled.IntPart(), nil
}

// dispatchTradeEvent hands the event to the publisher on a detached
// goroutine with capped backoff retries, and best-effort appends it to
// trade history. Neither can affect the already-decided order result.
func (e *Executor) dispatchTradeEvent(ev relay.TradeEvent) {
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		// Detached from the caller's context: the trade already
		// happened, cancelling the request must not lose its event.
		ctx := context.Background()
		for attempt := 0; ; attempt++ {
			err := e.pub.Publish(ctx, ev)
			if err == nil {
				return
			}
			if attempt >= publishRetries {
				e.log.Errorw("trade_event_dropped",
					"order_id", ev.OrderID,
					"user_id", ev.UserID,
					"attempts", attempt+1,
					"err", err)
				return
			}
			e.log.Warnw("trade_event_publish_retry",
				"order_id", ev.OrderID,
				"attempt", attempt+1,
				"err", err)
			time.Sleep(publishBackoff(attempt))
		}
	}()

	if e.trades != nil {
		e.background.Add(1)
		go func() {
			defer e.background.Done()
			if err := e.trades.RecordTrade(ev); err != nil {
				e.log.Errorw("trade_record_failed", "order_id", ev.OrderID, "err", err)
			}
		}()
	}
}

// Wait blocks until all background publish and record work has
// drained. Used on shutdown and in tests.
func (e *Executor) Wait() { e.background.Wait() }
