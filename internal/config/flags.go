package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagLog    = flag.String("log", "", "Also write logs to this file")
	flagCompat = flag.Bool("compat-tag", false, "Tag versions below 4 as version 3 when writing")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments remaining after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via -config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLog != "" {
		cfg.Logging.LogFile = *flagLog
	}
	if *flagCompat {
		cfg.Output.CompatVersionTag = true
	}
}
