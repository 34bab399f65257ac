package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	CORSAllowedOrigins []string
	AdminJWTSecret     string

	// Evolution API (WhatsApp gateway)
	EvolutionBaseURL       string
	EvolutionAPIKey        string
	EvolutionInstance      string
	EvolutionWebhookToken  string
	EvolutionRetryAttempts int
	EvolutionRetryBackoff  time.Duration
	InstanceStatusCacheTTL time.Duration

	// Chatwoot conversation mirroring
	ChatwootBaseURL   string
	ChatwootToken     string
	ChatwootAccountID int
	ChatwootInboxID   int

	// Redis (instance status cache)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Outbound e-mail
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	// Object storage for contract artifacts
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	ContractsBucket     string

	// Broadcast worker (macro fan-out sends)
	BroadcastWorkerCount int
	BroadcastInterval    time.Duration
	BroadcastBatchSize   int
	BroadcastMaxAttempts int

	// Outbox dispatcher
	OutboxInterval  time.Duration
	OutboxBatchSize int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),

		EvolutionBaseURL:       getEnv("EVOLUTION_BASE_URL", ""),
		EvolutionAPIKey:        getEnv("EVOLUTION_API_KEY", ""),
		EvolutionInstance:      getEnv("EVOLUTION_INSTANCE", ""),
		EvolutionWebhookToken:  getEnv("EVOLUTION_WEBHOOK_TOKEN", ""),
		EvolutionRetryAttempts: getEnvAsInt("EVOLUTION_RETRY_ATTEMPTS", 2),
		EvolutionRetryBackoff:  getEnvAsDuration("EVOLUTION_RETRY_BACKOFF", 250*time.Millisecond),
		InstanceStatusCacheTTL: getEnvAsDuration("INSTANCE_STATUS_CACHE_TTL", 30*time.Second),

		ChatwootBaseURL:   getEnv("CHATWOOT_BASE_URL", ""),
		ChatwootToken:     getEnv("CHATWOOT_TOKEN", ""),
		ChatwootAccountID: getEnvAsInt("CHATWOOT_ACCOUNT_ID", 0),
		ChatwootInboxID:   getEnvAsInt("CHATWOOT_INBOX_ID", 0),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Flow CRM"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ContractsBucket:     getEnv("CONTRACTS_BUCKET", "flow-contracts"),

		BroadcastWorkerCount: getEnvAsInt("BROADCAST_WORKER_COUNT", 2),
		BroadcastInterval:    getEnvAsDuration("BROADCAST_INTERVAL", time.Minute),
		BroadcastBatchSize:   getEnvAsInt("BROADCAST_BATCH_SIZE", 25),
		BroadcastMaxAttempts: getEnvAsInt("BROADCAST_MAX_ATTEMPTS", 3),

		OutboxInterval:  getEnvAsDuration("OUTBOX_INTERVAL", 2*time.Second),
		OutboxBatchSize: getEnvAsInt("OUTBOX_BATCH_SIZE", 25),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
