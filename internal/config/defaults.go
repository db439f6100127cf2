package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/susume/data/db/susume.db"
	}
	if cfg.Storage.CatalogIndexPath == "" {
		cfg.Storage.CatalogIndexPath = "/usr/local/var/susume/data/indices/catalog"
	}
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = "mock"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/susume/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 128
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Recommend.Limit == 0 {
		cfg.Recommend.Limit = 5
	}
	if cfg.Recommend.PropagationCap == 0 {
		cfg.Recommend.PropagationCap = 5
	}
	if cfg.Reward.WatchWindow == 0 {
		cfg.Reward.WatchWindow = 5
	}
	if cfg.Notify.Backend == "" {
		cfg.Notify.Backend = "none"
	}
	if cfg.Notify.Topic == "" {
		cfg.Notify.Topic = "data-usage"
	}
	if cfg.Notify.ClientID == "" {
		cfg.Notify.ClientID = "susume"
	}
}
