package config

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Intake    IntakeConfig
	Dedup     DedupConfig
	OCR       OCRConfig
	Embedding EmbeddingConfig
	Source    SourceConfig
	Compute   ComputeConfig
	Batch     BatchConfig
	Worker    WorkerConfig
	Reports   ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// IntakeConfig governs document submission limits and type classification.
type IntakeConfig struct {
	MaxFileSizeBytes int64
	DefaultPriority  int
	TypeRulesJSON    string
}

// DedupConfig carries the cascade thresholds and corpus tuning.
type DedupConfig struct {
	FilenameThreshold float64
	ContentThreshold  float64
	SemanticThreshold float64
	ContentSampleSize int
	CorpusScanLimit   int
	CorpusCacheTTL    time.Duration
}

// OCRConfig points at the external text-extraction engine.
type OCRConfig struct {
	BaseURL string
	Timeout time.Duration
}

// EmbeddingConfig points at the embedding service. An empty BaseURL
// disables the semantic tier entirely.
type EmbeddingConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Dimensions int
}

// SourceConfig points at the bulk document listing/download service.
type SourceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ComputeConfig controls GPU instance rental and remote job polling.
type ComputeConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MaxHourlyRate   float64
	MinGPURAMGB     int
	PollInterval    time.Duration
	MaxPollAttempts int
	ReadyTimeout    time.Duration
}

// BatchConfig tunes campaign partitioning and checkpointing.
type BatchConfig struct {
	Size               int
	CheckpointInterval int
	CostPerHour        float64
	SecondsPerDocument float64
	StorageDir         string
}

// WorkerConfig secures the claim/complete endpoints for external workers.
type WorkerConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// ReportsConfig controls campaign report exports.
type ReportsConfig struct {
	StorageDir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxFileSize := v.GetInt64("INTAKE_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 25 * 1024 * 1024
	}
	cfg.Intake = IntakeConfig{
		MaxFileSizeBytes: maxFileSize,
		DefaultPriority:  v.GetInt("INTAKE_DEFAULT_PRIORITY"),
		TypeRulesJSON:    v.GetString("INTAKE_TYPE_RULES"),
	}

	cfg.Dedup = DedupConfig{
		FilenameThreshold: v.GetFloat64("DEDUP_FILENAME_THRESHOLD"),
		ContentThreshold:  v.GetFloat64("DEDUP_CONTENT_THRESHOLD"),
		SemanticThreshold: v.GetFloat64("DEDUP_SEMANTIC_THRESHOLD"),
		ContentSampleSize: v.GetInt("DEDUP_CONTENT_SAMPLE_SIZE"),
		CorpusScanLimit:   v.GetInt("DEDUP_CORPUS_SCAN_LIMIT"),
		CorpusCacheTTL:    parseDuration(v.GetString("DEDUP_CORPUS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.OCR = OCRConfig{
		BaseURL: v.GetString("OCR_BASE_URL"),
		Timeout: parseDuration(v.GetString("OCR_TIMEOUT"), 30*time.Second),
	}

	cfg.Embedding = EmbeddingConfig{
		BaseURL:    v.GetString("EMBEDDING_BASE_URL"),
		Timeout:    parseDuration(v.GetString("EMBEDDING_TIMEOUT"), 15*time.Second),
		Dimensions: v.GetInt("EMBEDDING_DIMENSIONS"),
	}

	cfg.Source = SourceConfig{
		BaseURL: v.GetString("SOURCE_BASE_URL"),
		Timeout: parseDuration(v.GetString("SOURCE_TIMEOUT"), 60*time.Second),
	}

	cfg.Compute = ComputeConfig{
		BaseURL:         v.GetString("COMPUTE_BASE_URL"),
		APIKey:          v.GetString("COMPUTE_API_KEY"),
		Timeout:         parseDuration(v.GetString("COMPUTE_TIMEOUT"), 30*time.Second),
		MaxHourlyRate:   v.GetFloat64("COMPUTE_MAX_HOURLY_RATE"),
		MinGPURAMGB:     v.GetInt("COMPUTE_MIN_GPU_RAM_GB"),
		PollInterval:    parseDuration(v.GetString("COMPUTE_POLL_INTERVAL"), 15*time.Second),
		MaxPollAttempts: v.GetInt("COMPUTE_MAX_POLL_ATTEMPTS"),
		ReadyTimeout:    parseDuration(v.GetString("COMPUTE_READY_TIMEOUT"), 10*time.Minute),
	}

	cfg.Batch = BatchConfig{
		Size:               v.GetInt("BATCH_SIZE"),
		CheckpointInterval: v.GetInt("BATCH_CHECKPOINT_INTERVAL"),
		CostPerHour:        v.GetFloat64("BATCH_COST_PER_HOUR"),
		SecondsPerDocument: v.GetFloat64("BATCH_SECONDS_PER_DOCUMENT"),
		StorageDir:         v.GetString("BATCH_STORAGE_DIR"),
	}

	cfg.Worker = WorkerConfig{
		JWTSecret: v.GetString("WORKER_JWT_SECRET"),
		TokenTTL:  parseDuration(v.GetString("WORKER_TOKEN_TTL"), 12*time.Hour),
	}

	cfg.Reports = ReportsConfig{
		StorageDir: v.GetString("REPORTS_STORAGE_DIR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "doc_intake")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("INTAKE_MAX_FILE_SIZE", 25*1024*1024)
	v.SetDefault("INTAKE_DEFAULT_PRIORITY", 5)
	v.SetDefault("INTAKE_TYPE_RULES", "")

	v.SetDefault("DEDUP_FILENAME_THRESHOLD", 0.70)
	v.SetDefault("DEDUP_CONTENT_THRESHOLD", 0.85)
	v.SetDefault("DEDUP_SEMANTIC_THRESHOLD", 0.95)
	v.SetDefault("DEDUP_CONTENT_SAMPLE_SIZE", 1000)
	v.SetDefault("DEDUP_CORPUS_SCAN_LIMIT", 10000)
	v.SetDefault("DEDUP_CORPUS_CACHE_TTL", "5m")

	v.SetDefault("OCR_BASE_URL", "http://localhost:8081")
	v.SetDefault("OCR_TIMEOUT", "30s")

	v.SetDefault("EMBEDDING_BASE_URL", "")
	v.SetDefault("EMBEDDING_TIMEOUT", "15s")
	v.SetDefault("EMBEDDING_DIMENSIONS", 384)

	v.SetDefault("SOURCE_BASE_URL", "http://localhost:8082")
	v.SetDefault("SOURCE_TIMEOUT", "60s")

	v.SetDefault("COMPUTE_BASE_URL", "http://localhost:8083")
	v.SetDefault("COMPUTE_API_KEY", "")
	v.SetDefault("COMPUTE_TIMEOUT", "30s")
	v.SetDefault("COMPUTE_MAX_HOURLY_RATE", 0.50)
	v.SetDefault("COMPUTE_MIN_GPU_RAM_GB", 16)
	v.SetDefault("COMPUTE_POLL_INTERVAL", "15s")
	v.SetDefault("COMPUTE_MAX_POLL_ATTEMPTS", 240)
	v.SetDefault("COMPUTE_READY_TIMEOUT", "10m")

	v.SetDefault("BATCH_SIZE", 100)
	v.SetDefault("BATCH_CHECKPOINT_INTERVAL", 10)
	v.SetDefault("BATCH_COST_PER_HOUR", 0.50)
	v.SetDefault("BATCH_SECONDS_PER_DOCUMENT", 4.5)
	v.SetDefault("BATCH_STORAGE_DIR", "./batches")

	v.SetDefault("WORKER_JWT_SECRET", "dev_worker_secret")
	v.SetDefault("WORKER_TOKEN_TTL", "12h")

	v.SetDefault("REPORTS_STORAGE_DIR", "./reports")
}

// TypeRule is one row of the document-type classification table.
type TypeRule struct {
	Type           string   `json:"type"`
	Patterns       []string `json:"patterns"`
	Priority       int      `json:"priority"`
	RequiresOCR    bool     `json:"requires_ocr"`
	RequiresReview bool     `json:"requires_review"`
}

// ParseTypeRules decodes the configured document-type rule table. Rules
// are data so new document types are additive without code changes.
func (c IntakeConfig) ParseTypeRules() ([]TypeRule, error) {
	if strings.TrimSpace(c.TypeRulesJSON) == "" {
		return nil, nil
	}
	var rules []TypeRule
	if err := json.Unmarshal([]byte(c.TypeRulesJSON), &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
