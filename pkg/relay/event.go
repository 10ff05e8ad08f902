package relay

import "fmt"

// DefaultTopic is the broadcast channel for executed trades.
const DefaultTopic = "trade_executed"

// TradeEvent is the denormalized record broadcast once per successful
// order. Price and Size are decimal strings, human-readable venue
// units, not the 1e6-scaled integers the venue wire format uses.
type TradeEvent struct {
	UserID  string `json:"userId"`
	OrderID string `json:"orderId"`
	Side    string `json:"side"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Market  string `json:"market"`
}

// FormatAlert renders the human-readable notification text for an
// executed trade.
func FormatAlert(ev TradeEvent) string {
	text := fmt.Sprintf("Trade Alert: %s %s @ %s", ev.Side, ev.Size, ev.Price)
	if ev.Market != "" {
		text += fmt.Sprintf(" (%s)", ev.Market)
	}
	return text
}
