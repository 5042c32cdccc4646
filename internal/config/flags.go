package config

import "flag"

// Flags are command-line overrides. Zero values leave the config untouched.
type Flags struct {
	ConfigPath  string
	Debug       bool
	LogFile     string
	Descriptor  string
	Rules       string
	FaultPolicy string
	NoDecorate  bool
	Edge        string
	Seed        int64
	Rows        int
	Cols        int
	Workers     int
	Listen      string
}

// Register adds the override flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "config.yaml", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&f.Descriptor, "tileset", "", "Tileset descriptor (.tsx or .tsj)")
	fs.StringVar(&f.Rules, "rules", "", "Rules file")
	fs.StringVar(&f.FaultPolicy, "fault-policy", "", "abort or substitute")
	fs.BoolVar(&f.NoDecorate, "no-decorate", false, "Disable plain-tile variations")
	fs.StringVar(&f.Edge, "edge", "", "Border policy for generated maps: open or wrap")
	fs.Int64Var(&f.Seed, "seed", 0, "Generator seed")
	fs.IntVar(&f.Rows, "rows", 0, "Generated map rows")
	fs.IntVar(&f.Cols, "cols", 0, "Generated map columns")
	fs.IntVar(&f.Workers, "workers", 0, "Resolution workers (0 = one per CPU)")
	fs.StringVar(&f.Listen, "listen", "", "SSH preview listen address")
}

// Apply copies the flags that were set onto cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.File = f.LogFile
	}
	if f.Descriptor != "" {
		cfg.Tileset.Descriptor = f.Descriptor
	}
	if f.Rules != "" {
		cfg.Tileset.Rules = f.Rules
	}
	if f.FaultPolicy != "" {
		cfg.Resolve.FaultPolicy = f.FaultPolicy
	}
	if f.NoDecorate {
		cfg.Resolve.Decoration = false
	}
	if f.Edge != "" {
		cfg.Resolve.Edge = f.Edge
	}
	if f.Seed != 0 {
		cfg.Generate.Seed = f.Seed
	}
	if f.Rows > 0 {
		cfg.Generate.Rows = f.Rows
	}
	if f.Cols > 0 {
		cfg.Generate.Cols = f.Cols
	}
	if f.Workers > 0 {
		cfg.Resolve.Workers = f.Workers
	}
	if f.Listen != "" {
		cfg.Server.Listen = f.Listen
	}
}

// Load resolves the final config: defaults < file < flags.
func (f *Flags) Load() (*Config, error) {
	cfg, err := LoadConfigOrDefault(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
