package config

import (
	"os"
	"strconv"
	"time"

	"wallet-ledger/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	DBDriver   string // postgres, mysql or sqlite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBDSN      string // overrides the discrete DB_* fields when set

	PlisioApiURL      string
	PlisioApiKey      string
	PlisioSecretKey   string // verifies webhook verify_hash when set
	PlisioCallbackURL string
	GatewayTimeout    time.Duration

	CryptoInvoiceTTL time.Duration
	ExpirySweepSpec  string

	SendgridApiKey string
	EmailSender    string

	UploadDir string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logger.L().Warn("no .env file found, using system environment variables")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "wallet_ledger"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBDSN:      getEnv("DB_DSN", ""),

		PlisioApiURL:      getEnv("PLISIO_API_URL", "https://plisio.net/api/v1"),
		PlisioApiKey:      getEnv("PLISIO_API_KEY", ""),
		PlisioSecretKey:   getEnv("PLISIO_SECRET_KEY", ""),
		PlisioCallbackURL: getEnv("PLISIO_CALLBACK_URL", "http://localhost:3000/payments/webhook?json=true"),
		GatewayTimeout:    getEnvDuration("GATEWAY_TIMEOUT", 15*time.Second),

		CryptoInvoiceTTL: getEnvDuration("CRYPTO_INVOICE_TTL", 24*time.Hour),
		ExpirySweepSpec:  getEnv("EXPIRY_SWEEP_SPEC", "@every 5m"),

		SendgridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@wallet.local"),

		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
	}

	if AppConfig.JWTKey == "defaultSecret" {
		logger.L().Warn("using default JWT_SECRET_KEY, update it in your environment")
	}
	if AppConfig.PlisioApiKey == "" {
		logger.L().Warn("PLISIO_API_KEY not set, crypto payments will fail at the gateway")
	}
	return AppConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		logger.L().Warn("invalid integer env var, using default", zap.String("key", key), zap.Error(err))
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.L().Warn("invalid duration env var, using default", zap.String("key", key), zap.Error(err))
		return defaultValue
	}
	return d
}
