// Package config builds a fluxio socket configuration from flags,
// environment variables, and an optional config file, following the
// same cobra/viper layering the rest of the stack uses.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluxio/fluxio/internal/poller"
	"github.com/fluxio/fluxio/internal/splitio"
)

// BindMode selects between the managed engine and split-ownership
// handles; it is a terminal selector, not something a caller can
// change after Open.
type BindMode int

const (
	BindEngine BindMode = iota
	BindSplit
)

func (m BindMode) String() string {
	if m == BindSplit {
		return "split"
	}
	return "engine"
}

// Config is the full configuration surface for one AF_XDP socket plus
// the policy knobs layered on top of it (poller strategy, batch size,
// congestion policy, bind mode).
type Config struct {
	Interface string `mapstructure:"interface"`
	QueueID   uint32 `mapstructure:"queue_id"`

	FrameSize  uint32 `mapstructure:"frame_size"`
	FrameCount uint32 `mapstructure:"frame_count"`

	RxRingSize   uint32 `mapstructure:"rx_ring_size"`
	TxRingSize   uint32 `mapstructure:"tx_ring_size"`
	FillRingSize uint32 `mapstructure:"fill_ring_size"`
	CompRingSize uint32 `mapstructure:"completion_ring_size"`

	Poller     string `mapstructure:"poller"`
	BatchSize  uint32 `mapstructure:"batch_size"`
	Congestion string `mapstructure:"congestion"`

	LoadXDP  bool   `mapstructure:"load_xdp"`
	BindMode string `mapstructure:"bind_mode"`

	LogLevel string `mapstructure:"log_level"`

	// PinCPU, if set, pins the hot-loop goroutine to this CPU core
	// before it starts polling. Unset (nil) leaves scheduling to the
	// Go runtime.
	PinCPU *int `mapstructure:"pin_cpu"`
}

// Load builds a Config from cmd's bound flags, environment variables
// prefixed FLUXIO_, and an optional --config file, in that descending
// order of precedence: a flag set on the command line wins over the
// environment, which wins over the file, which wins over the defaults.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindFlags(v, cmd); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	v.SetEnvPrefix("FLUXIO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("frame_size", 2048)
	v.SetDefault("frame_count", 4096)
	v.SetDefault("rx_ring_size", 2048)
	v.SetDefault("tx_ring_size", 2048)
	v.SetDefault("fill_ring_size", 2048)
	v.SetDefault("completion_ring_size", 2048)
	v.SetDefault("poller", "adaptive")
	v.SetDefault("batch_size", 32)
	v.SetDefault("congestion", "drop_new")
	v.SetDefault("load_xdp", false)
	v.SetDefault("bind_mode", "engine")
	v.SetDefault("log_level", "info")
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	flagBindings := map[string]string{
		"interface":            "interface",
		"queue-id":             "queue_id",
		"frame-size":           "frame_size",
		"frame-count":          "frame_count",
		"rx-ring-size":         "rx_ring_size",
		"tx-ring-size":         "tx_ring_size",
		"fill-ring-size":       "fill_ring_size",
		"completion-ring-size": "completion_ring_size",
		"poller":               "poller",
		"batch-size":           "batch_size",
		"congestion":           "congestion",
		"load-xdp":             "load_xdp",
		"bind-mode":            "bind_mode",
		"log-level":            "log_level",
	}

	for flag, key := range flagBindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func isPowerOfTwo(n uint32) bool { return n != 0 && n&(n-1) == 0 }

// Validate checks the enumerated bounds and power-of-two constraints
// spec §6 places on this configuration surface.
func (c *Config) Validate() error {
	if c.Interface == "" {
		return fmt.Errorf("interface is required")
	}
	if c.FrameSize != 2048 && c.FrameSize != 4096 {
		return fmt.Errorf("frame_size must be 2048 or 4096, got %d", c.FrameSize)
	}
	if c.FrameCount < 64 || !isPowerOfTwo(c.FrameCount) {
		return fmt.Errorf("frame_count must be a power of two >= 64, got %d", c.FrameCount)
	}
	for name, size := range map[string]uint32{
		"rx_ring_size":         c.RxRingSize,
		"tx_ring_size":         c.TxRingSize,
		"fill_ring_size":       c.FillRingSize,
		"completion_ring_size": c.CompRingSize,
	} {
		if !isPowerOfTwo(size) {
			return fmt.Errorf("%s must be a power of two, got %d", name, size)
		}
	}
	if c.BatchSize < 1 || c.BatchSize > 256 {
		return fmt.Errorf("batch_size must be between 1 and 256, got %d", c.BatchSize)
	}
	if _, err := c.PollerStrategy(); err != nil {
		return err
	}
	if _, err := c.CongestionStrategy(); err != nil {
		return err
	}
	if _, err := c.ResolveBindMode(); err != nil {
		return err
	}
	return nil
}

// PollerStrategy translates the configured poller name into a
// poller.Strategy.
func (c *Config) PollerStrategy() (poller.Strategy, error) {
	switch strings.ToLower(c.Poller) {
	case "busy":
		return poller.Busy, nil
	case "syscall":
		return poller.Syscall, nil
	case "adaptive", "":
		return poller.Adaptive, nil
	default:
		return 0, fmt.Errorf("unknown poller strategy %q", c.Poller)
	}
}

// CongestionStrategy translates the configured congestion name into a
// splitio.CongestionStrategy.
func (c *Config) CongestionStrategy() (splitio.CongestionStrategy, error) {
	switch strings.ToLower(c.Congestion) {
	case "drop_new", "dropnew", "":
		return splitio.DropNew, nil
	case "block":
		return splitio.Block, nil
	default:
		return 0, fmt.Errorf("unknown congestion strategy %q", c.Congestion)
	}
}

// ResolveBindMode translates the configured bind_mode name into a
// BindMode.
func (c *Config) ResolveBindMode() (BindMode, error) {
	switch strings.ToLower(c.BindMode) {
	case "engine", "":
		return BindEngine, nil
	case "split":
		return BindSplit, nil
	default:
		return 0, fmt.Errorf("unknown bind_mode %q", c.BindMode)
	}
}
