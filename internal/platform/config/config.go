package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jinford/catalog-rag/internal/infra/ollama"
	"github.com/jinford/catalog-rag/internal/infra/openai"
	"github.com/joho/godotenv"
)

// ベクトルストアの種別
const (
	VectorStorePgvector = "pgvector"
	VectorStoreSQLite   = "sqlite"
	VectorStoreMemory   = "memory"
)

// カタログストアの種別
const (
	CatalogStorePostgres = "postgres"
	CatalogStoreMemory   = "memory"
)

// LLMプロバイダーの種別
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	VectorStore  string
	SQLitePath   string
	CatalogStore string

	LLM       LLMConfig
	Ask       AskConfig
	Bootstrap BootstrapConfig
	Log       LogConfig
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LLMConfig は埋め込み・生成バックエンドの設定
type LLMConfig struct {
	Provider           string // "ollama" or "openai"
	OllamaBaseURL      string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingTimeout   time.Duration
	GenerationModel    string
	GenerationTimeout  time.Duration
}

// AskConfig は回答生成の設定
type AskConfig struct {
	TopK             int
	MaxContextTokens int // 0 は無制限
}

// BootstrapConfig は初回インジェストの設定
type BootstrapConfig struct {
	Concurrency int
	RateLimit   float64 // 毎秒の埋め込み呼び出し数。0 は無制限
	SeedCount   int
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string
	Format string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama))
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "catalog"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "catalog"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		VectorStore:  strings.ToLower(getEnv("VECTOR_STORE", VectorStorePgvector)),
		SQLitePath:   getEnv("SQLITE_PATH", "data/vectors.db"),
		CatalogStore: strings.ToLower(getEnv("CATALOG_STORE", CatalogStorePostgres)),
		LLM: LLMConfig{
			Provider:           provider,
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", defaultEmbeddingModel(provider)),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", defaultEmbeddingDimension(provider)),
			EmbeddingTimeout:   getEnvAsDuration("EMBEDDING_TIMEOUT", ollama.DefaultEmbeddingTimeout),
			GenerationModel:    getEnv("GENERATION_MODEL", defaultGenerationModel(provider)),
			GenerationTimeout:  getEnvAsDuration("GENERATION_TIMEOUT", ollama.DefaultGenerationTimeout),
		},
		Ask: AskConfig{
			TopK:             getEnvAsInt("ASK_TOP_K", 5),
			MaxContextTokens: getEnvAsInt("ASK_MAX_CONTEXT_TOKENS", 0),
		},
		Bootstrap: BootstrapConfig{
			Concurrency: getEnvAsInt("BOOTSTRAP_CONCURRENCY", 4),
			RateLimit:   getEnvAsFloat("BOOTSTRAP_RATE_LIMIT", 0),
			SeedCount:   getEnvAsInt("SEED_COUNT", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の組み合わせを検証します
func (c *Config) Validate() error {
	switch c.VectorStore {
	case VectorStorePgvector, VectorStoreSQLite, VectorStoreMemory:
	default:
		return fmt.Errorf("unsupported VECTOR_STORE: %q", c.VectorStore)
	}
	switch c.CatalogStore {
	case CatalogStorePostgres, CatalogStoreMemory:
	default:
		return fmt.Errorf("unsupported CATALOG_STORE: %q", c.CatalogStore)
	}
	switch c.LLM.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER: %q", c.LLM.Provider)
	}
	if c.LLM.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive: %d", c.LLM.EmbeddingDimension)
	}
	if c.Ask.TopK < 1 {
		return fmt.Errorf("ASK_TOP_K must be at least 1: %d", c.Ask.TopK)
	}
	return nil
}

// UsesPostgres は PostgreSQL 接続が必要な構成かを返します
func (c *Config) UsesPostgres() bool {
	return c.VectorStore == VectorStorePgvector || c.CatalogStore == CatalogStorePostgres
}

func defaultEmbeddingModel(provider string) string {
	if provider == ProviderOpenAI {
		return openai.DefaultEmbeddingModel
	}
	return ollama.DefaultEmbeddingModel
}

func defaultEmbeddingDimension(provider string) int {
	if provider == ProviderOpenAI {
		return openai.DefaultEmbeddingDimension
	}
	return ollama.DefaultDimension
}

func defaultGenerationModel(provider string) string {
	if provider == ProviderOpenAI {
		return openai.DefaultModel
	}
	return ollama.DefaultGenerationModel
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を time.Duration として取得します。単位のない数値は秒とみなします
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
