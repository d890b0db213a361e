package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration: engine parameters, token wiring, and the
// local market seeded for development runs.
type Config struct {
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	LogEnvironment string `toml:"LogEnvironment"`
	LogFile        string `toml:"LogFile"`

	Engine   Engine    `toml:"Engine"`
	Tokens   Tokens    `toml:"Tokens"`
	Pools    []Pool    `toml:"Pools"`
	Balances []Balance `toml:"Balances"`
}

// Engine mirrors the runtime knobs of the buy-and-burn engine. Amounts are
// decimal strings so configs stay exact beyond uint64.
type Engine struct {
	Address             string   `toml:"Address"`
	Owner               string   `toml:"Owner"`
	Keeper              string   `toml:"Keeper"`
	IncentiveFeeBps     uint32   `toml:"IncentiveFeeBps"`
	IntervalSeconds     uint64   `toml:"IntervalSeconds"`
	CapPerSwapPrimary   string   `toml:"CapPerSwapPrimary"`
	CapPerSwapSecondary string   `toml:"CapPerSwapSecondary"`
	Whitelist           []string `toml:"Whitelist"`
}

// Tokens names the four assets and optional multi-hop swap paths.
type Tokens struct {
	Primary            string   `toml:"Primary"`
	PrimaryTaxBps      uint32   `toml:"PrimaryTaxBps"`
	Secondary          string   `toml:"Secondary"`
	SecondaryTaxBps    uint32   `toml:"SecondaryTaxBps"`
	TargetA            string   `toml:"TargetA"`
	TargetB            string   `toml:"TargetB"`
	SecondaryToPrimary []string `toml:"SecondaryToPrimary"`
	PrimaryToTargetA   []string `toml:"PrimaryToTargetA"`
	PrimaryToTargetB   []string `toml:"PrimaryToTargetB"`
}

// Pool seeds one constant-product pair of the development market.
type Pool struct {
	TokenA   string `toml:"TokenA"`
	TokenB   string `toml:"TokenB"`
	ReserveA string `toml:"ReserveA"`
	ReserveB string `toml:"ReserveB"`
	FeeBps   uint32 `toml:"FeeBps"`
	Address  string `toml:"Address"`
}

// Balance funds an address at startup.
type Balance struct {
	Token   string `toml:"Token"`
	Address string `toml:"Address"`
	Amount  string `toml:"Amount"`
}

// Load decodes and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = ":9464"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./data"
	}
	if strings.TrimSpace(c.LogEnvironment) == "" {
		c.LogEnvironment = "dev"
	}
	if c.Engine.IncentiveFeeBps == 0 {
		c.Engine.IncentiveFeeBps = 30
	}
	if c.Engine.IntervalSeconds == 0 {
		c.Engine.IntervalSeconds = 3600
	}
}

// Validate checks the pieces downstream constructors cannot default away.
func (c *Config) Validate() error {
	if _, err := ParseAddress(c.Engine.Address); err != nil {
		return fmt.Errorf("config: engine address: %w", err)
	}
	if _, err := ParseAddress(c.Engine.Owner); err != nil {
		return fmt.Errorf("config: engine owner: %w", err)
	}
	if strings.TrimSpace(c.Engine.Keeper) != "" {
		if _, err := ParseAddress(c.Engine.Keeper); err != nil {
			return fmt.Errorf("config: engine keeper: %w", err)
		}
	}
	for i, raw := range c.Engine.Whitelist {
		if _, err := ParseAddress(raw); err != nil {
			return fmt.Errorf("config: whitelist entry %d: %w", i, err)
		}
	}
	if _, err := ParseAmount(c.Engine.CapPerSwapPrimary); err != nil {
		return fmt.Errorf("config: primary cap: %w", err)
	}
	if _, err := ParseAmount(c.Engine.CapPerSwapSecondary); err != nil {
		return fmt.Errorf("config: secondary cap: %w", err)
	}
	for _, symbol := range []string{c.Tokens.Primary, c.Tokens.Secondary, c.Tokens.TargetA, c.Tokens.TargetB} {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("config: all four token symbols are required")
		}
	}
	for i, pool := range c.Pools {
		if _, err := ParseAddress(pool.Address); err != nil {
			return fmt.Errorf("config: pool %d address: %w", i, err)
		}
		if _, err := ParseAmount(pool.ReserveA); err != nil {
			return fmt.Errorf("config: pool %d reserve A: %w", i, err)
		}
		if _, err := ParseAmount(pool.ReserveB); err != nil {
			return fmt.Errorf("config: pool %d reserve B: %w", i, err)
		}
	}
	for i, balance := range c.Balances {
		if _, err := ParseAddress(balance.Address); err != nil {
			return fmt.Errorf("config: balance %d address: %w", i, err)
		}
		if _, err := ParseAmount(balance.Amount); err != nil {
			return fmt.Errorf("config: balance %d amount: %w", i, err)
		}
	}
	return nil
}

// ParseAddress decodes a 0x-prefixed or bare 40-char hex address.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	if len(trimmed) != 40 {
		return addr, fmt.Errorf("address must be 20 bytes (got %d hex chars)", len(trimmed))
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("decode address: %w", err)
	}
	copy(addr[:], decoded)
	return addr, nil
}

// ParseAmount decodes a non-negative decimal amount. Underscore separators are
// permitted for readability.
func ParseAmount(raw string) (*big.Int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if cleaned == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(cleaned, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be non-negative")
	}
	return amount, nil
}
