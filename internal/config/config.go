package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration. Values arrive already resolved:
// no secret decryption happens here.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Security  SecurityConfig
	Documents DocumentsConfig
	Backup    BackupConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SecurityConfig carries the credential and session policy knobs.
type SecurityConfig struct {
	PasswordMinLength  int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireNumber      bool
	RequireSpecial     bool
	LockoutThreshold   int
	SessionTTL         time.Duration
	MaxSessionsPerUser int
	TOTPIssuer         string
}

type DocumentsConfig struct {
	PageSize    int
	CounterBase int64
}

type BackupConfig struct {
	Dir string
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
	// stricter bucket applied to credential-guessing surfaces
	LoginRPS   float64
	LoginBurst int
}

// LoadConfig loads configuration from environment variables and an optional .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5002")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "arsipku")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("PASSWORD_MIN_LENGTH", 8)
	viper.SetDefault("PASSWORD_REQUIRE_UPPERCASE", true)
	viper.SetDefault("PASSWORD_REQUIRE_LOWERCASE", true)
	viper.SetDefault("PASSWORD_REQUIRE_NUMBER", true)
	viper.SetDefault("PASSWORD_REQUIRE_SPECIAL", true)
	viper.SetDefault("LOCKOUT_THRESHOLD", 5)
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("MAX_SESSIONS_PER_USER", 10)
	viper.SetDefault("TOTP_ISSUER", "Arsipku")
	viper.SetDefault("DOCUMENTS_PAGE_SIZE", 50)
	viper.SetDefault("DOCUMENT_COUNTER_BASE", 1000)
	viper.SetDefault("BACKUP_DIR", "backups")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("RATE_LIMIT_LOGIN_RPS", 1.0)
	viper.SetDefault("RATE_LIMIT_LOGIN_BURST", 5)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Security: SecurityConfig{
			PasswordMinLength:  viper.GetInt("PASSWORD_MIN_LENGTH"),
			RequireUppercase:   viper.GetBool("PASSWORD_REQUIRE_UPPERCASE"),
			RequireLowercase:   viper.GetBool("PASSWORD_REQUIRE_LOWERCASE"),
			RequireNumber:      viper.GetBool("PASSWORD_REQUIRE_NUMBER"),
			RequireSpecial:     viper.GetBool("PASSWORD_REQUIRE_SPECIAL"),
			LockoutThreshold:   viper.GetInt("LOCKOUT_THRESHOLD"),
			SessionTTL:         time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			MaxSessionsPerUser: viper.GetInt("MAX_SESSIONS_PER_USER"),
			TOTPIssuer:         viper.GetString("TOTP_ISSUER"),
		},
		Documents: DocumentsConfig{
			PageSize:    viper.GetInt("DOCUMENTS_PAGE_SIZE"),
			CounterBase: viper.GetInt64("DOCUMENT_COUNTER_BASE"),
		},
		Backup: BackupConfig{
			Dir: viper.GetString("BACKUP_DIR"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			LoginRPS:      viper.GetFloat64("RATE_LIMIT_LOGIN_RPS"),
			LoginBurst:    viper.GetInt("RATE_LIMIT_LOGIN_BURST"),
		},
	}

	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}

	return cfg, nil
}
