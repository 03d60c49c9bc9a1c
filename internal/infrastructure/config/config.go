package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// StorageDriverMySQL 台帳をMySQLに保存
	StorageDriverMySQL = "mysql"
	// StorageDriverBolt 台帳を埋め込みbboltファイルに保存
	StorageDriverBolt = "bolt"

	// FallbackAutoApprove 検証サービス障害時に承認扱いにする
	FallbackAutoApprove = "auto_approve"
	// FallbackPendingReview 検証サービス障害時に保留扱いにする
	FallbackPendingReview = "pending_review"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	JWT           JWTConfig
	OpenTelemetry OpenTelemetryConfig
	Verification  VerificationConfig
	Catalog       CatalogConfig
	Log           LogConfig
	RateLimit     RateLimitConfig
	Cart          CartConfig
	Environment   string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port            int
	GRPCPort        int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// AllowedOrigins CORSとWebSocketで許可するOrigin。空ならWebSocketは同一オリジンのみ
	AllowedOrigins []string
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// StorageConfig 台帳・カートの保存先設定
type StorageConfig struct {
	Driver   string // "mysql", "bolt"
	BoltPath string
}

// JWTConfig JWT設定
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "stdout"
	SampleRatio     float64
}

// VerificationConfig 外部検証サービス設定
type VerificationConfig struct {
	TripVerifierURL  string
	PhotoVerifierURL string
	Timeout          time.Duration
	FallbackPolicy   string // "auto_approve", "pending_review"
}

// CatalogConfig カタログ設定
type CatalogConfig struct {
	Path string // 空なら組み込みの標準カタログ
}

// LogConfig ログ出力設定
type LogConfig struct {
	File       string // 空なら標準出力
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// RateLimitConfig 位置情報送信のレート制限設定
type RateLimitConfig struct {
	FixesPerSecond float64
	Burst          int
}

// CartConfig カート設定
type CartConfig struct {
	ReminderDelay time.Duration
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	port := getEnvAsInt("SERVER_PORT", 8080)

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Port:            port,
			GRPCPort:        getEnvAsInt("GRPC_PORT", port+1),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "eco_rewards"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", StorageDriverMySQL),
			BoltPath: getEnv("BOLT_PATH", "data/eco-rewards.db"),
		},
		JWT: loadJWTConfig(),
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", true),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "eco-rewards"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
			SampleRatio:     getEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
		Verification: VerificationConfig{
			TripVerifierURL:  getEnv("TRIP_VERIFIER_URL", "http://localhost:8000"),
			PhotoVerifierURL: getEnv("PHOTO_VERIFIER_URL", "http://localhost:8003"),
			Timeout:          getEnvAsDuration("VERIFIER_TIMEOUT", 10*time.Second),
			FallbackPolicy:   getEnv("VERIFIER_FALLBACK_POLICY", FallbackAutoApprove),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		Log: LogConfig{
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 28),
			Compress:   getEnvAsBool("LOG_COMPRESS", true),
		},
		RateLimit: RateLimitConfig{
			FixesPerSecond: getEnvAsFloat("RATE_LIMIT_FIXES_PER_SECOND", 5),
			Burst:          getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Cart: CartConfig{
			ReminderDelay: getEnvAsDuration("CART_REMINDER_DELAY", 15*time.Minute),
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadJWT JWT設定のみを読み込む
// トークン発行CLIなど、サーバー設定を必要としない用途向け
func LoadJWT() (*JWTConfig, error) {
	_ = godotenv.Load()

	cfg := loadJWTConfig()
	if cfg.Secret == "" {
		return nil, fmt.Errorf("config validation failed: JWT_SECRET is required")
	}
	return &cfg, nil
}

func loadJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:     getEnv("JWT_SECRET", ""),
		Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
		Issuer:     getEnv("JWT_ISSUER", "eco-rewards"),
	}
}

// validate 設定の検証
func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverMySQL:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case StorageDriverBolt:
		if c.Storage.BoltPath == "" {
			return fmt.Errorf("BOLT_PATH is required")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER: %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Verification.FallbackPolicy {
	case FallbackAutoApprove, FallbackPendingReview:
	default:
		return fmt.Errorf("unknown VERIFIER_FALLBACK_POLICY: %q", c.Verification.FallbackPolicy)
	}
	if c.RateLimit.FixesPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_FIXES_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// DSN データベース接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat 環境変数を浮動小数点数として取得
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice カンマ区切りの環境変数をスライスとして取得
func getEnvAsSlice(key string) []string {
	var values []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
