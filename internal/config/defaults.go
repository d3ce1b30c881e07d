package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Binary.Path == "" {
		cfg.Binary.Path = "rg"
	}
	if cfg.Search.DefaultMaxResults == 0 {
		cfg.Search.DefaultMaxResults = 1000
	}
	if cfg.Search.ProgressIntervalMS == 0 {
		cfg.Search.ProgressIntervalMS = 500
	}
	if cfg.Search.BufferItems == 0 {
		cfg.Search.BufferItems = 50
	}
	if cfg.Search.BufferBytes == 0 {
		cfg.Search.BufferBytes = 8 << 20
	}
	if cfg.Search.GracePeriodS == 0 {
		cfg.Search.GracePeriodS = 5
	}
	if cfg.Search.MaxTimeoutS == 0 {
		cfg.Search.MaxTimeoutS = 600
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = ".ripsearch/history.db"
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}
