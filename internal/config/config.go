package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every tunable of the service.
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Analyzer AnalyzerConfig
	Chat     ChatConfig
	Index    IndexConfig
	Cache    CacheConfig
	Extract  ExtractConfig
	Quota    QuotaConfig
	Accounts AccountsConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	analyzer, err := loadAnalyzerConfig()
	if err != nil {
		return nil, err
	}

	index, err := loadIndexConfig()
	if err != nil {
		return nil, err
	}

	cache, err := loadCacheConfig()
	if err != nil {
		return nil, err
	}

	extract, err := loadExtractConfig()
	if err != nil {
		return nil, err
	}

	quota, err := loadQuotaConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Auth:     auth,
		Analyzer: analyzer,
		Chat:     loadChatConfig(),
		Index:    index,
		Cache:    cache,
		Extract:  extract,
		Quota:    quota,
		Accounts: AccountsConfig{DBPath: strings.TrimSpace(os.Getenv("ACCOUNTS_DB_PATH"))},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := []string{"*"}
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		origins = origins[:0]
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// AuthConfig holds the bearer-token verification secret.
type AuthConfig struct {
	JWTSecret string
}

func loadAuthConfig() (AuthConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("JWT_SECRET is required")
	}
	return AuthConfig{JWTSecret: secret}, nil
}

// AnalyzerConfig describes the structured-analysis model.
type AnalyzerConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AnalyzerConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the analyzer model from the configuration.
func (c AnalyzerConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY + ANALYZER_MODEL, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAnalyzerConfig() (AnalyzerConfig, error) {
	temperature, err := parseOptionalFloatEnv("ANALYZER_TEMPERATURE")
	if err != nil {
		return AnalyzerConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ANALYZER_MAX_TOKENS")
	if err != nil {
		return AnalyzerConfig{}, err
	}

	return AnalyzerConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ANALYZER_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// ChatConfig describes the follow-up chat and embedding models served by
// Ollama.
type ChatConfig struct {
	BaseURL        string
	Model          string
	EmbeddingModel string
}

func loadChatConfig() ChatConfig {
	return ChatConfig{
		BaseURL:        getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		Model:          getEnvOrDefault("CHAT_MODEL", "phi3:mini"),
		EmbeddingModel: getEnvOrDefault("EMBEDDING_MODEL", "bge-m3"),
	}
}

// IndexConfig describes the semantic index.
type IndexConfig struct {
	Host      string
	Scheme    string
	APIKey    string
	ClassName string
	TopK      int
}

// Enabled reports whether an index endpoint is configured.
func (c IndexConfig) Enabled() bool {
	return c.Host != ""
}

func loadIndexConfig() (IndexConfig, error) {
	topK := 3
	if override, err := parseOptionalIntEnv("RETRIEVE_TOP_K"); err != nil {
		return IndexConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return IndexConfig{}, fmt.Errorf("RETRIEVE_TOP_K must be at least 1")
		}
		topK = *override
	}

	return IndexConfig{
		Host:      strings.TrimSpace(os.Getenv("WEAVIATE_HOST")),
		Scheme:    getEnvOrDefault("WEAVIATE_SCHEME", "http"),
		APIKey:    strings.TrimSpace(os.Getenv("WEAVIATE_API_KEY")),
		ClassName: getEnvOrDefault("INDEX_CLASS", "LegalPassage"),
		TopK:      topK,
	}, nil
}

// CacheConfig describes the Redis session cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func loadCacheConfig() (CacheConfig, error) {
	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return CacheConfig{}, err
	} else if override != nil {
		db = *override
	}

	ttl := 24 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return CacheConfig{}, fmt.Errorf("invalid SESSION_TTL value %q: %w", raw, err)
		}
		if parsed <= 0 {
			return CacheConfig{}, fmt.Errorf("SESSION_TTL must be positive")
		}
		ttl = parsed
	}

	return CacheConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      ttl,
	}, nil
}

// ExtractConfig describes PDF text extraction and the OCR fallback.
type ExtractConfig struct {
	MinDigitalText int
	OCRLanguage    string
}

func loadExtractConfig() (ExtractConfig, error) {
	minDigital := 100
	if override, err := parseOptionalIntEnv("MIN_DIGITAL_TEXT"); err != nil {
		return ExtractConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return ExtractConfig{}, fmt.Errorf("MIN_DIGITAL_TEXT must not be negative")
		}
		minDigital = *override
	}

	return ExtractConfig{
		MinDigitalText: minDigital,
		OCRLanguage:    getEnvOrDefault("OCR_LANGUAGE", "eng"),
	}, nil
}

// QuotaConfig paces calls to the analyzer model.
type QuotaConfig struct {
	MaxCalls int
	Period   time.Duration
}

func loadQuotaConfig() (QuotaConfig, error) {
	maxCalls := 2
	if override, err := parseOptionalIntEnv("QUOTA_MAX_CALLS"); err != nil {
		return QuotaConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return QuotaConfig{}, fmt.Errorf("QUOTA_MAX_CALLS must be at least 1")
		}
		maxCalls = *override
	}

	period := time.Minute
	if raw := strings.TrimSpace(os.Getenv("QUOTA_PERIOD")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return QuotaConfig{}, fmt.Errorf("invalid QUOTA_PERIOD value %q: %w", raw, err)
		}
		if parsed <= 0 {
			return QuotaConfig{}, fmt.Errorf("QUOTA_PERIOD must be positive")
		}
		period = parsed
	}

	return QuotaConfig{MaxCalls: maxCalls, Period: period}, nil
}

// AccountsConfig points at the accounts database. An empty path disables
// account lookups.
type AccountsConfig struct {
	DBPath string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
