package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/opera-holder-rewards/integration"
	"github.com/rony4d/opera-holder-rewards/opera"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node    NodeConfig
	Opera   OperaConfig
	Rewards RewardsConfig
	Store   StoreConfig
	Metrics MetricsConfig
}

type NodeConfig struct {
	DataDir string
	Name    string
	Logging LoggingConfig
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

type OperaConfig struct {
	NetworkName string
	Genesis     string
	FakeNetSize int
}

// RewardsConfig overrides the network's rewards rules. Zero values keep the
// preset.
type RewardsConfig struct {
	MintInterval   uint64
	RetentionSlack *uint64 `toml:",omitempty"`
}

// StoreConfig picks a storage preset. Non-zero fields override it.
type StoreConfig struct {
	Preset   string
	CacheMB  int
	Handles  int
	GCMode   string
	DBPreset string
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
	Port    int
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

func defaultConfig() Config {
	defaults := DefaultConfig()
	return Config{
		Node: NodeConfig{
			DataDir: resolvePath(defaults.Node.DataDir),
			Name:    defaults.Node.Name,
			Logging: LoggingConfig{
				Verbosity: defaults.Logging.Verbosity,
				Format:    defaults.Logging.Format,
				Color:     defaults.Logging.Color,
			},
		},
		Opera: OperaConfig{
			NetworkName: defaults.Network.ChainName,
			FakeNetSize: defaults.Network.FakeNetSize,
		},
		Store: StoreConfig{
			Preset: defaults.Storage.Preset,
		},
		Metrics: MetricsConfig{
			Enabled: defaults.Metrics.Enable,
			Addr:    defaults.Metrics.HTTPAddr,
			Port:    defaults.Metrics.HTTPPort,
		},
	}
}

// MakeAllConfigs merges defaults, config-file values and CLI overrides into a
// single config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.String("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	applyCLIOverrides(ctx, &cfg)

	if _, err := cfg.Rules(); err != nil {
		return cfg, err
	}
	if _, err := cfg.StorePreset(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Rules returns the network rules with the rewards overrides applied.
func (c Config) Rules() (opera.Rules, error) {
	rules, err := opera.RulesByName(c.Opera.NetworkName)
	if err != nil {
		return rules, err
	}
	if c.Rewards.MintInterval != 0 {
		rules.Rewards.MintInterval = idx.Block(c.Rewards.MintInterval)
	}
	if c.Rewards.RetentionSlack != nil {
		rules.Rewards.RetentionSlack = idx.Block(*c.Rewards.RetentionSlack)
	}
	if err := rules.Rewards.Validate(); err != nil {
		return rules, err
	}
	return rules, nil
}

// StorePreset returns the named storage preset with the explicit store
// settings applied on top.
func (c Config) StorePreset() (integration.PresetConfig, error) {
	preset, err := integration.GetPresetByName(c.Store.Preset)
	if err != nil {
		return preset, err
	}
	integration.ApplyPreset(&preset, integration.PresetConfig{
		CacheMB:       c.Store.CacheMB,
		Handles:       c.Store.Handles,
		GCMode:        c.Store.GCMode,
		DBPreset:      c.Store.DBPreset,
		EnableMetrics: c.Metrics.Enabled,
	})
	if _, err := preset.Retention(); err != nil {
		return preset, err
	}
	return preset, nil
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func loadConfigFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return fmt.Errorf("unknown keys %v", undecoded)
	}
	cfg.Node.DataDir = resolvePath(cfg.Node.DataDir)
	return nil
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) {
	if ctx.IsSet("datadir") {
		cfg.Node.DataDir = resolvePath(ctx.String("datadir"))
	}
	if ctx.IsSet("identity") {
		cfg.Node.Name = ctx.String("identity")
	}

	if ctx.IsSet("log.format") {
		cfg.Node.Logging.Format = ctx.String("log.format")
	}
	if ctx.IsSet("log.verbosity") {
		cfg.Node.Logging.Verbosity = ctx.Int("log.verbosity")
	}
	if ctx.IsSet("log.color") {
		cfg.Node.Logging.Color = ctx.Bool("log.color")
	}
	if ctx.IsSet("log.sentry") {
		cfg.Node.Logging.SentryDSN = ctx.String("log.sentry")
	}

	if ctx.IsSet("metrics") {
		cfg.Metrics.Enabled = ctx.Bool("metrics")
	}
	if ctx.IsSet("metrics.addr") {
		cfg.Metrics.Addr = ctx.String("metrics.addr")
	}
	if ctx.IsSet("metrics.port") {
		cfg.Metrics.Port = ctx.Int("metrics.port")
	}

	if ctx.IsSet("network") {
		cfg.Opera.NetworkName = ctx.String("network")
	}
	if ctx.IsSet("genesis") {
		cfg.Opera.Genesis = resolvePath(ctx.String("genesis"))
	}
	if ctx.IsSet("fakenet") {
		cfg.Opera.FakeNetSize = ctx.Int("fakenet")
	}

	if ctx.IsSet("rewards.interval") {
		cfg.Rewards.MintInterval = ctx.Uint64("rewards.interval")
	}
	if ctx.IsSet("rewards.slack") {
		slack := ctx.Uint64("rewards.slack")
		cfg.Rewards.RetentionSlack = &slack
	}

	if ctx.IsSet("preset") {
		cfg.Store.Preset = ctx.String("preset")
	}
	if ctx.IsSet("cache") {
		cfg.Store.CacheMB = ctx.Int("cache")
	}
	if ctx.IsSet("handles") {
		cfg.Store.Handles = ctx.Int("handles")
	}
	if ctx.IsSet("gcmode") {
		cfg.Store.GCMode = ctx.String("gcmode")
	}
	if ctx.IsSet("db.preset") {
		cfg.Store.DBPreset = ctx.String("db.preset")
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if p == "" {
		return p
	}
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
