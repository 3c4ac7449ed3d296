package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	Server     Server     `mapstructure:"server"`
	Scraper    Scraper    `mapstructure:"scraper"`
	RAG        RAG        `mapstructure:"rag"`
	Generation Generation `mapstructure:"generation"`
	Store      Store      `mapstructure:"store"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"config_file"`
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey              string  `mapstructure:"api_key"`
	Model               string  `mapstructure:"model"`
	ConclusionModel     string  `mapstructure:"conclusion_model"`
	AnalyzerModel       string  `mapstructure:"analyzer_model"`
	Timeout             string  `mapstructure:"timeout"`
	MaxTokens           int32   `mapstructure:"max_tokens"`
	Temperature         float32 `mapstructure:"temperature"`
	EmbeddingModel      string  `mapstructure:"embedding_model"`
	EmbeddingDimensions int32   `mapstructure:"embedding_dimensions"`
	RequestsPerMinute   int     `mapstructure:"requests_per_minute"`
}

// Server holds HTTP server configuration
type Server struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
	RequestTimeout string   `mapstructure:"request_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AdminAPIKey    string   `mapstructure:"admin_api_key"`
}

// Scraper holds web scraping configuration
type Scraper struct {
	Timeout             string `mapstructure:"timeout"`
	UserAgent           string `mapstructure:"user_agent"`
	MaxBodyBytes        int64  `mapstructure:"max_body_bytes"`
	MaxTextChars        int    `mapstructure:"max_text_chars"`
	ReadabilityFallback bool   `mapstructure:"readability_fallback"`
}

// RAG holds retrieval index configuration
type RAG struct {
	Embedder            string  `mapstructure:"embedder"` // "gemini" or "hash"
	ChunkSize           int     `mapstructure:"chunk_size"`
	ChunkOverlap        int     `mapstructure:"chunk_overlap"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	TopK                int     `mapstructure:"top_k"`
	CacheSize           int     `mapstructure:"cache_size"`
	EmbedBatchSize      int     `mapstructure:"embed_batch_size"`
	EmbedConcurrency    int     `mapstructure:"embed_concurrency"`
}

// Generation holds limits applied while building prompts
type Generation struct {
	SectionContextLimit    int `mapstructure:"section_context_limit"`
	ConclusionContextLimit int `mapstructure:"conclusion_context_limit"`
	AnalyzerContentLimit   int `mapstructure:"analyzer_content_limit"`
	BriefExcerptLimit      int `mapstructure:"brief_excerpt_limit"`
}

// Store holds article history persistence configuration
type Store struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads the configuration from .env, an optional YAML file and the
// environment. An empty configFile searches . and $HOME for .briefgen.yaml.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".briefgen")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = v.ConfigFileUsed()

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.debug", false)
	v.SetDefault("app.data_dir", ".briefgen")

	// AI defaults
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.conclusion_model", "")
	v.SetDefault("ai.gemini.analyzer_model", "gemini-2.5-flash-lite")
	v.SetDefault("ai.gemini.timeout", "60s")
	v.SetDefault("ai.gemini.max_tokens", 8192)
	v.SetDefault("ai.gemini.temperature", 0.7)
	v.SetDefault("ai.gemini.embedding_model", "text-embedding-004")
	v.SetDefault("ai.gemini.embedding_dimensions", 768)
	v.SetDefault("ai.gemini.requests_per_minute", 60)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.request_timeout", "5m")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Scraper defaults
	v.SetDefault("scraper.timeout", "10s")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scraper.max_body_bytes", 100000)
	v.SetDefault("scraper.max_text_chars", 10000)
	v.SetDefault("scraper.readability_fallback", true)

	// RAG defaults
	v.SetDefault("rag.embedder", "gemini")
	v.SetDefault("rag.chunk_size", 700)
	v.SetDefault("rag.chunk_overlap", 100)
	v.SetDefault("rag.similarity_threshold", 0.1)
	v.SetDefault("rag.top_k", 3)
	v.SetDefault("rag.cache_size", 256)
	v.SetDefault("rag.embed_batch_size", 50)
	v.SetDefault("rag.embed_concurrency", 4)

	// Generation defaults
	v.SetDefault("generation.section_context_limit", 2000)
	v.SetDefault("generation.conclusion_context_limit", 3000)
	v.SetDefault("generation.analyzer_content_limit", 5000)
	v.SetDefault("generation.brief_excerpt_limit", 2000)

	// Store defaults
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", ".briefgen/articles.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables(v *viper.Viper) {
	// Gemini API key - support multiple formats
	bindEnvKeys(v, "ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys(v, "server.port", []string{"PORT"})
	bindEnvKeys(v, "server.admin_api_key", []string{"ADMIN_API_KEY"})
	bindEnvKeys(v, "store.path", []string{"DATABASE_PATH"})
	bindEnvKeys(v, "logging.level", []string{"LOG_LEVEL"})

	bindEnvKeys(v, "app.debug", []string{
		"DEBUG",
		"BRIEFGEN_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Store.Path != "" {
		config.Store.Path = expandPath(config.Store.Path)
	}

	durations := map[string]string{
		"ai.gemini.timeout":      config.AI.Gemini.Timeout,
		"server.read_timeout":    config.Server.ReadTimeout,
		"server.write_timeout":   config.Server.WriteTimeout,
		"server.request_timeout": config.Server.RequestTimeout,
		"scraper.timeout":        config.Scraper.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	if config.AI.Gemini.APIKey == "" {
		errors = append(errors, "Gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file.")
	}

	if config.RAG.ChunkSize <= 0 {
		errors = append(errors, "rag.chunk_size must be positive")
	}
	if config.RAG.ChunkOverlap < 0 || config.RAG.ChunkOverlap >= config.RAG.ChunkSize {
		errors = append(errors, fmt.Sprintf("rag.chunk_overlap must be in [0, %d)", config.RAG.ChunkSize))
	}
	if config.RAG.SimilarityThreshold < 0 || config.RAG.SimilarityThreshold > 1 {
		errors = append(errors, "rag.similarity_threshold must be between 0 and 1")
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("server.port out of range: %d", config.Server.Port))
	}

	switch strings.ToLower(config.RAG.Embedder) {
	case "gemini", "hash", "":
	default:
		errors = append(errors, fmt.Sprintf("Unknown rag.embedder: %s. Supported: gemini, hash", config.RAG.Embedder))
	}

	switch strings.ToLower(config.Logging.Format) {
	case "json", "text", "":
	default:
		errors = append(errors, fmt.Sprintf("Unknown logging format: %s. Supported: json, text", config.Logging.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Duration parses a duration that postProcessConfig already validated,
// falling back when the value is empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Addr returns the listen address for the HTTP server.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ResolvedConclusionModel returns the model used for conclusions, which
// defaults to the main generation model.
func (g GeminiConfig) ResolvedConclusionModel() string {
	if g.ConclusionModel != "" {
		return g.ConclusionModel
	}
	return g.Model
}
