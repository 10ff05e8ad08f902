package params

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Venue is the external order-matching endpoint.
type Venue struct {
	URL     string
	Timeout time.Duration // bounds a single order submission
}

// Relay is the trade-event broadcast channel.
type Relay struct {
	Topic      string
	ListenAddr string   // libp2p listen multiaddr
	Bootstrap  []string // peers to dial at startup
}

// Notify configures the alert transport. An empty TelegramToken falls
// back to log-only alerts.
type Notify struct {
	TelegramToken string
	TelegramAPI   string
}

type Config struct {
	// MasterKey is the vault master key: exactly 32 raw bytes, decoded
	// from RELAY_MASTER_KEY at startup. Loading fails without it.
	MasterKey []byte

	Venue   Venue
	Relay   Relay
	Notify  Notify
	APIAddr string
	DataDir string
}

func Default() Config {
	return Config{
		Venue: Venue{
			URL:     "http://localhost:9090",
			Timeout: 10 * time.Second,
		},
		Relay: Relay{
			Topic:      "trade_executed",
			ListenAddr: "/ip4/0.0.0.0/tcp/4001",
		},
		APIAddr: ":8080",
		DataDir: "data/relay",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
//
// The master key is the one value that cannot default: a missing or
// malformed RELAY_MASTER_KEY is a fatal configuration error, never a
// per-call error later.
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	key, err := decodeMasterKey(os.Getenv("RELAY_MASTER_KEY"))
	if err != nil {
		return Config{}, err
	}
	cfg.MasterKey = key

	if v := os.Getenv("RELAY_VENUE_URL"); v != "" {
		cfg.Venue.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("RELAY_VENUE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Venue.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("RELAY_TOPIC"); v != "" {
		cfg.Relay.Topic = v
	}
	if v := os.Getenv("RELAY_P2P_LISTEN"); v != "" {
		cfg.Relay.ListenAddr = v
	}
	if v := os.Getenv("RELAY_P2P_BOOTSTRAP"); v != "" {
		cfg.Relay.Bootstrap = strings.Split(v, ",")
	}
	if v := os.Getenv("RELAY_API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("RELAY_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.Notify.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Notify.TelegramAPI = os.Getenv("TELEGRAM_API_BASE")

	return cfg, nil
}

// decodeMasterKey decodes the configured hex string into the 32 raw
// bytes the vault requires.
func decodeMasterKey(hexKey string) ([]byte, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("params: RELAY_MASTER_KEY is not set")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("params: RELAY_MASTER_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("params: RELAY_MASTER_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
