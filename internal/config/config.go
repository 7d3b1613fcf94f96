package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// Each credential kind has its own secret; a token signed for one kind
	// never verifies as another.
	JWTAccessSecret    string
	JWTRefreshSecret   string
	JWTChallengeSecret string

	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	RefreshTokenRememberTTL time.Duration
	ChallengeTokenTTL       time.Duration

	TwoFactor TwoFactorConfig

	BcryptCost int

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	AuditTopic string

	AllowedOrigins []string // CORS allowed origins
}

// TwoFactorConfig controls one-time code issuance and lockout.
type TwoFactorConfig struct {
	CodeLength  int
	CodeTTL     time.Duration
	MaxAttempts int
	BlockTTL    time.Duration
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users           string
	RoleMemberships string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:           getEnv("DYNAMO_TABLE_USERS", "users"),
			RoleMemberships: getEnv("DYNAMO_TABLE_ROLE_MEMBERSHIPS", "role_memberships"),
		},

		JWTAccessSecret:    getEnv("JWT_SECRET", "dev-access-secret"),
		JWTRefreshSecret:   getEnv("JWT_REFRESH_SECRET", "dev-refresh-secret"),
		JWTChallengeSecret: getEnv("TEMP_TOKEN_SECRET", "dev-challenge-secret"),

		AccessTokenTTL:          getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:         getEnvDuration("REFRESH_TOKEN_TTL", time.Hour),
		RefreshTokenRememberTTL: getEnvDuration("REFRESH_TOKEN_REMEMBER_TTL", 7*24*time.Hour),
		ChallengeTokenTTL:       getEnvDuration("CHALLENGE_TOKEN_TTL", 10*time.Minute),

		TwoFactor: TwoFactorConfig{
			CodeLength:  getEnvInt("TWO_FACTOR_CODE_LENGTH", 6),
			CodeTTL:     getEnvDuration("TWO_FACTOR_CODE_TTL", 10*time.Minute),
			MaxAttempts: getEnvInt("TWO_FACTOR_MAX_ATTEMPTS", 3),
			BlockTTL:    getEnvDuration("TWO_FACTOR_BLOCK_TTL", 30*time.Minute),
		},

		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@expertguide.example"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AuditTopic: getEnv("AUDIT_TOPIC", "expertguide.auth.audit"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
