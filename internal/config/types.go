package config

// SplitStrategy identifies a backend chunking strategy.
type SplitStrategy string

const (
	SplitLevel1      SplitStrategy = "level_1"
	SplitLevel2      SplitStrategy = "level_2"
	SplitTokenWindow SplitStrategy = "token_window"
)

// Config is the top-level graphdesk configuration, corresponding to .graphdesk.yml.
type Config struct {
	ServerURL        string          `yaml:"server_url" koanf:"server_url"`
	KnowledgeBaseID  int64           `yaml:"knowledge_base_id" koanf:"knowledge_base_id"`
	DataDir          string          `yaml:"data_dir" koanf:"data_dir"`
	SplitStrategy    SplitStrategy   `yaml:"split_strategy" koanf:"split_strategy"`
	PollIntervalSecs int             `yaml:"poll_interval_secs" koanf:"poll_interval_secs"`
	PollMaxAttempts  int             `yaml:"poll_max_attempts" koanf:"poll_max_attempts"`
	Include          []string        `yaml:"include" koanf:"include"`
	Exclude          []string        `yaml:"exclude" koanf:"exclude"`
	Retrieval        RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Viewer           ViewerConfig    `yaml:"viewer" koanf:"viewer"`
}

// RetrievalConfig holds default retrieval tuning sent with chat requests.
type RetrievalConfig struct {
	TopK               int    `yaml:"top_k" koanf:"top_k"`
	CrossEncoderScheme string `yaml:"cross_encoder_scheme" koanf:"cross_encoder_scheme"`
}

// ViewerConfig holds settings for the local read-only viewer.
type ViewerConfig struct {
	Port int `yaml:"port" koanf:"port"`
}
