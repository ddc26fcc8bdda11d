package launcher

// Defaults bundles the baseline configuration values the launcher will use
// before config files and flags override them.
type Defaults struct {
	Node    NodeDefaults
	Network NetworkDefaults
	Storage StorageDefaults
	Metrics MetricsDefaults
	Logging LoggingDefaults
}

// NodeDefaults captures top-level instance settings.
type NodeDefaults struct {
	DataDir string //	Filesystem root where the holder rewards database lives. Changing it lets you keep several networks or test runs isolated.
	Name    string //	Human-readable instance identity attached to logs; helps operators distinguish instances.
}

// NetworkDefaults selects the rules preset and the generated fake genesis.
type NetworkDefaults struct {
	ChainName   string //	Rules preset (main, test, fake). Every node of a network must use the same rules, otherwise they mint different rewards.
	FakeNetSize int    //	Number of generated holder accounts when no genesis file is given.
}

// StorageDefaults configures the database.
type StorageDefaults struct {
	Preset string //	Storage preset (lite, full, archive, default) providing the cache size, handles, GC mode and backend below.
}

type MetricsDefaults struct {
	Enable   bool   //	Toggle for the metrics server; when true Prometheus metrics are served on HTTPAddr:HTTPPort/metrics.
	HTTPAddr string //	IP/interface the metrics server binds to (0.0.0.0 for all interfaces or 127.0.0.1 for local-only).
	HTTPPort int    //	TCP port of the metrics server; default 6060.
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
}

// DefaultConfig returns a fully populated Defaults instance.
func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir: "~/.opera-holders",
			Name:    "opera-holders",
		},
		Network: NetworkDefaults{
			ChainName:   "fake",
			FakeNetSize: 3,
		},
		Storage: StorageDefaults{
			Preset: "default",
		},
		Metrics: MetricsDefaults{
			Enable:   false,
			HTTPAddr: "127.0.0.1",
			HTTPPort: 6060,
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     false,
		},
	}
}
