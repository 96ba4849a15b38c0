package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Scanner Configuration

[gateway]
# Market-data gateway host (TWS or IB Gateway)
host = "127.0.0.1"
# Gateway port: 7497 paper, 7496 live
port = 7497
# Client slot ID; one logical client per connection slot
client_id = 1

[collection]
# Number of contract requests issued per batch
batch_size = 50
# Delay between consecutive batches; keeps requests under the
# gateway's per-second ceiling. Shortening this risks throttling.
batch_delay = "100ms"
# Only the nearest N expirations are fetched (0 = all)
max_expirations = 4

[exchanges]
# Default routing exchange for stocks
default_stock = "SMART"
# Default listing exchange for US option contracts
default_option = "OPRA"

# Per-symbol exchange overrides
[exchanges.overrides]
# AAPL = "NASDAQ"

[scanner]
# Concurrent strategy evaluations
workers = 4
# Cap on generated strike combinations per scan
max_candidates = 5000
# Expirations scanned when none is specified
max_expirations = 4
# Default result limit
default_limit = 10
# Payoff curve sample count
payoff_samples = 200
# Sampled price range as a ratio around spot (0.5 = +/-50%)
price_range_ratio = 0.5

[cache]
# Short-TTL option chain cache
enabled = true
ttl = "60s"

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("writing template config: %w", err)
	}

	return nil
}
