package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverFile     = "file"
)

type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Storage    StorageConfig    `yaml:"storage"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Answer     AnswerConfig     `yaml:"answer"`
	Server     ServerConfig     `yaml:"server"`
	Watchlist  WatchlistConfig  `yaml:"watchlist"`
	Email      EmailConfig      `yaml:"email"`
	Log        LogConfig        `yaml:"log"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type YouTubeConfig struct {
	APIKey       string   `yaml:"api_key"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenFile    string   `yaml:"token_file"`
	Languages    []string `yaml:"languages"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	Path       string `yaml:"path"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type SummarizerConfig struct {
	TargetWords int `yaml:"target_words"`
	ChunkWords  int `yaml:"chunk_words"`
}

type AnswerConfig struct {
	MaxTokens      int  `yaml:"max_tokens"`
	RenderMarkdown bool `yaml:"render_markdown"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type WatchlistConfig struct {
	URLs     []string `yaml:"urls"`
	Schedule string   `yaml:"schedule"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether digest emails should be sent.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != ""
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

// Load reads CONFIG_FILE (default config.yaml). A missing default file is not an
// error: the service can run from environment variables alone.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		cfg, err := LoadFile("config.yaml")
		if errors.Is(err, os.ErrNotExist) {
			return FromEnv(&Config{})
		}
		return cfg, err
	}
	return LoadFile(configFile)
}

// LoadFile parses the YAML file at path, then applies env fallbacks, defaults and validation.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return FromEnv(&cfg)
}

// FromEnv fills empty fields of cfg from the environment and defaults, then validates it.
func FromEnv(cfg *Config) (*Config, error) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderGemini
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case ProviderGemini:
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		case ProviderOpenAI:
			cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case ProviderOpenAI:
			cfg.LLM.Model = "llama-3.1-8b-instant"
		default:
			cfg.LLM.Model = "gemini-2.5-flash"
		}
	}
	if cfg.LLM.Provider == ProviderOpenAI && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}

	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.YouTube.ClientID == "" {
		cfg.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if cfg.YouTube.ClientSecret == "" {
		cfg.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if cfg.YouTube.TokenFile == "" {
		cfg.YouTube.TokenFile = "youtube_token.json"
	}
	if len(cfg.YouTube.Languages) == 0 {
		cfg.YouTube.Languages = []string{"en"}
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.DSN == "" {
		switch cfg.Storage.Driver {
		case DriverPostgres:
			cfg.Storage.DSN = os.Getenv("DATABASE_URL")
		case DriverMongo:
			cfg.Storage.DSN = os.Getenv("MONGO_URI")
		}
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case DriverFile:
			cfg.Storage.Path = "data/videos.json"
		default:
			cfg.Storage.Path = "data/videos.db"
		}
	}
	if cfg.Storage.Database == "" {
		cfg.Storage.Database = "video_kb"
	}
	if cfg.Storage.Collection == "" {
		cfg.Storage.Collection = "videos"
	}

	if cfg.Summarizer.TargetWords <= 0 {
		cfg.Summarizer.TargetWords = 1000
	}
	if cfg.Summarizer.ChunkWords <= 0 {
		cfg.Summarizer.ChunkWords = 500
	}
	if cfg.Answer.MaxTokens <= 0 {
		cfg.Answer.MaxTokens = 500
	}

	if cfg.Server.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			cfg.Server.Port = p
		} else {
			cfg.Server.Port = 8080
		}
	}
	if cfg.Watchlist.Schedule == "" {
		cfg.Watchlist.Schedule = "0 0 * * * *" // Hourly
	}

	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}

	if cfg.Log.Mode == "" {
		cfg.Log.Mode = os.Getenv("LOG_MODE")
	}
	if cfg.Log.Mode == "" {
		cfg.Log.Mode = "dev"
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm provider %q (use gemini or openai)", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required (set LLM_API_KEY, GEMINI_API_KEY/GROQ_API_KEY or llm.api_key)")
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverFile:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("postgres DSN is required (set DATABASE_URL or storage.dsn)")
		}
	case DriverMongo:
		if c.Storage.DSN == "" {
			return fmt.Errorf("mongo URI is required (set MONGO_URI or storage.dsn)")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (use sqlite, postgres, mongo or file)", c.Storage.Driver)
	}

	if c.Email.Enabled() && (c.Email.Username == "" || c.Email.Password == "") {
		return fmt.Errorf("email credentials are required when email.smtp_server is set (set EMAIL_USERNAME and EMAIL_PASSWORD)")
	}
	return nil
}
