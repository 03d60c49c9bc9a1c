package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantError   bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "正常系: デフォルト値で設定を読み込む",
			env: map[string]string{
				"JWT_SECRET": "test-secret",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 8081, cfg.Server.GRPCPort)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 3306, cfg.Database.Port)
				assert.Equal(t, "eco_rewards", cfg.Database.Database)
				assert.Equal(t, StorageDriverMySQL, cfg.Storage.Driver)
				assert.Equal(t, FallbackAutoApprove, cfg.Verification.FallbackPolicy)
				assert.Equal(t, 10*time.Second, cfg.Verification.Timeout)
				assert.Equal(t, "", cfg.Catalog.Path)
				assert.Equal(t, "", cfg.Log.File)
				assert.Equal(t, 5.0, cfg.RateLimit.FixesPerSecond)
				assert.Equal(t, 10, cfg.RateLimit.Burst)
				assert.Equal(t, 15*time.Minute, cfg.Cart.ReminderDelay)
				assert.Empty(t, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "正常系: 環境変数から設定を読み込む",
			env: map[string]string{
				"ENVIRONMENT":              "production",
				"SERVER_PORT":              "9000",
				"GRPC_PORT":                "9500",
				"DB_HOST":                  "db.example.com",
				"DB_PORT":                  "3307",
				"DB_NAME":                  "prod_db",
				"JWT_SECRET":               "prod-secret",
				"JWT_EXPIRATION":           "12h",
				"TRIP_VERIFIER_URL":        "http://verifier:8000",
				"VERIFIER_FALLBACK_POLICY": "pending_review",
				"CATALOG_PATH":             "/etc/eco/catalog.yaml",
				"LOG_FILE":                 "/var/log/eco.log",
				"CART_REMINDER_DELAY":      "5m",
				"ALLOWED_ORIGINS":          "https://app.example.com, https://admin.example.com",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "production", cfg.Environment)
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, 9500, cfg.Server.GRPCPort)
				assert.Equal(t, "db.example.com", cfg.Database.Host)
				assert.Equal(t, 3307, cfg.Database.Port)
				assert.Equal(t, "prod_db", cfg.Database.Database)
				assert.Equal(t, "prod-secret", cfg.JWT.Secret)
				assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
				assert.Equal(t, "http://verifier:8000", cfg.Verification.TripVerifierURL)
				assert.Equal(t, FallbackPendingReview, cfg.Verification.FallbackPolicy)
				assert.Equal(t, "/etc/eco/catalog.yaml", cfg.Catalog.Path)
				assert.Equal(t, "/var/log/eco.log", cfg.Log.File)
				assert.Equal(t, 5*time.Minute, cfg.Cart.ReminderDelay)
				assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "正常系: bboltストレージ",
			env: map[string]string{
				"JWT_SECRET":     "test-secret",
				"STORAGE_DRIVER": "bolt",
				"BOLT_PATH":      "/tmp/eco.db",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StorageDriverBolt, cfg.Storage.Driver)
				assert.Equal(t, "/tmp/eco.db", cfg.Storage.BoltPath)
			},
		},
		{
			name:      "異常系: JWT_SECRETが空",
			env:       map[string]string{},
			wantError: true,
		},
		{
			name: "異常系: 不明なストレージ",
			env: map[string]string{
				"JWT_SECRET":     "test-secret",
				"STORAGE_DRIVER": "sqlite",
			},
			wantError: true,
		},
		{
			name: "異常系: 不明なフォールバック方針",
			env: map[string]string{
				"JWT_SECRET":               "test-secret",
				"VERIFIER_FALLBACK_POLICY": "reject",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, cfg)
				if tt.checkConfig != nil {
					tt.checkConfig(t, cfg)
				}
			}
		})
	}
}

func TestLoadJWT(t *testing.T) {
	t.Run("正常系: 環境変数から読み込む", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "cli-secret")
		t.Setenv("JWT_EXPIRATION", "2h")
		t.Setenv("JWT_ISSUER", "")

		cfg, err := LoadJWT()
		require.NoError(t, err)
		assert.Equal(t, "cli-secret", cfg.Secret)
		assert.Equal(t, 2*time.Hour, cfg.Expiration)
		assert.Equal(t, "eco-rewards", cfg.Issuer)
	})

	t.Run("異常系: JWT_SECRETが空", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		cfg, err := LoadJWT()
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		User:     "testuser",
		Password: "testpass",
		Host:     "localhost",
		Port:     3306,
		Database: "testdb",
	}

	dsn := cfg.DSN()
	assert.Equal(t, "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}

func TestGetEnvAsFloat(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue float64
		want         float64
	}{
		{name: "環境変数が設定されている", envValue: "2.5", defaultValue: 1, want: 2.5},
		{name: "環境変数が空", envValue: "", defaultValue: 3, want: 3},
		{name: "環境変数が無効な値", envValue: "fast", defaultValue: 4, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("TEST_FLOAT", tt.envValue)
			defer os.Unsetenv("TEST_FLOAT")

			got := getEnvAsFloat("TEST_FLOAT", tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		want         int
	}{
		{
			name:         "環境変数が設定されている",
			envValue:     "123",
			defaultValue: 0,
			want:         123,
		},
		{
			name:         "環境変数が空",
			envValue:     "",
			defaultValue: 456,
			want:         456,
		},
		{
			name:         "環境変数が無効な値",
			envValue:     "invalid",
			defaultValue: 789,
			want:         789,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("TEST_INT", tt.envValue)
			defer os.Unsetenv("TEST_INT")

			got := getEnvAsInt("TEST_INT", tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{
			name:         "環境変数がtrue",
			envValue:     "true",
			defaultValue: false,
			want:         true,
		},
		{
			name:         "環境変数がfalse",
			envValue:     "false",
			defaultValue: true,
			want:         false,
		},
		{
			name:         "環境変数が空",
			envValue:     "",
			defaultValue: true,
			want:         true,
		},
		{
			name:         "環境変数が無効な値",
			envValue:     "invalid",
			defaultValue: false,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("TEST_BOOL", tt.envValue)
			defer os.Unsetenv("TEST_BOOL")

			got := getEnvAsBool("TEST_BOOL", tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{
			name:         "環境変数が有効な時間",
			envValue:     "1h",
			defaultValue: time.Minute,
			want:         time.Hour,
		},
		{
			name:         "環境変数が空",
			envValue:     "",
			defaultValue: time.Minute,
			want:         time.Minute,
		},
		{
			name:         "環境変数が無効な値",
			envValue:     "invalid",
			defaultValue: time.Hour,
			want:         time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("TEST_DURATION", tt.envValue)
			defer os.Unsetenv("TEST_DURATION")

			got := getEnvAsDuration("TEST_DURATION", tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}
