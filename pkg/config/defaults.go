package config

func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Catalog:   "orders.json",
			Rules:     "aliases.json",
			HistoryDB: "history.db",
			Sessions:  "sessions",
		},
		Dispatch: DispatchConfig{
			TimeoutSeconds: 60,
			WatchCatalog:   true,
		},
		NL: NLConfig{
			Enabled:           true,
			Provider:          "ollama",
			BaseURL:           "http://localhost:11434",
			Model:             "llama3.1",
			TimeoutSeconds:    10,
			RequestsPerMinute: 30,
		},
		Feedback: FeedbackConfig{
			PositiveDelta: 0.2,
			NegativeDelta: 0.3,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Narrate: NarrateConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// DefaultConfigAt returns the defaults with relative paths resolved against
// home, as LoadConfig would for a config file in that directory.
func DefaultConfigAt(home string) *Config {
	cfg := DefaultConfig()
	cfg.resolvePaths(home)
	return cfg
}
