package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 60
	}
	if cfg.Namespace.Catalog == "" {
		cfg.Namespace.Catalog = "namesim"
	}
	if cfg.Namespace.Schema == "" {
		cfg.Namespace.Schema = "retail"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/namesim/data/db/names.db"
	}
	if cfg.Storage.DSNEnv == "" {
		cfg.Storage.DSNEnv = "NAMESIM_POSTGRES_DSN"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/namesim/data/indices/bleve"
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "/usr/local/var/namesim/data/indices/vectors.zst"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hosted"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "databricks-gte-large-en"
	}
	if cfg.Embedding.TokenEnv == "" {
		cfg.Embedding.TokenEnv = "DATABRICKS_TOKEN"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1024
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 16
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 64
	}
	if cfg.Embedding.Cache.Type == "" {
		cfg.Embedding.Cache.Type = "lru"
	}
	if cfg.Embedding.Cache.Size == 0 {
		cfg.Embedding.Cache.Size = 10000
	}
	if cfg.Embedding.Cache.RedisAddr == "" {
		cfg.Embedding.Cache.RedisAddr = "localhost:6379"
	}
	if cfg.Embedding.Cache.TTLSeconds == 0 {
		cfg.Embedding.Cache.TTLSeconds = 24 * 60 * 60
	}
	r := &cfg.Embedding.Resilience
	if r.TimeoutSeconds == 0 {
		r.TimeoutSeconds = 30
	}
	if r.Burst == 0 {
		r.Burst = 1
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = 3
	}
	if r.BackoffMillis == 0 {
		r.BackoffMillis = 200
	}
	if r.BreakerFailures == 0 {
		r.BreakerFailures = 5
	}
	if r.BreakerTimeoutSeconds == 0 {
		r.BreakerTimeoutSeconds = 30
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.Scoring == "" {
		cfg.Search.Scoring = "cosine"
	}
	if cfg.Search.Workers == 0 {
		cfg.Search.Workers = 4
	}
	if cfg.Vectorize.Concurrency == 0 {
		cfg.Vectorize.Concurrency = 4
	}
	if cfg.Vectorize.OnError == "" {
		cfg.Vectorize.OnError = "abort"
	}
	if cfg.Watch.DebounceMillis == 0 {
		cfg.Watch.DebounceMillis = 500
	}
}
