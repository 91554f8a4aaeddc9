package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the alert engine.
type Config struct {
	// HTTP
	HTTPAddr string

	// Logging
	LogLevel string

	// Telemetry store: empty DSN selects the in-memory store
	PostgresDSN string
	DBMaxConns  int32

	// Redis cycle-result mirror: empty address disables it
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Alert event stream: no brokers disables publishing
	KafkaBrokers []string
	KafkaTopic   string

	// Scheduler
	CycleInterval time.Duration

	// Dispatch
	DispatchConcurrency int
	SendTimeout         time.Duration
	RetryPolicy         string // none, fixed, backoff
	RetryCount          int
	RetryBackoff        time.Duration

	// SMS gateway: both URL and key must be set for live delivery
	SMSGatewayURL string
	SMSAPIKey     string
	SMSSender     string

	// Chat gateway: webhook URL must be set for live delivery
	ChatWebhookURL string

	// Prediction service: empty URL means local heuristic only
	PredictURL     string
	PredictTimeout time.Duration

	// Threshold rules file (YAML); empty uses built-in defaults
	RulesFile string

	// Static recipients file (YAML); used when no Postgres DSN is set
	RecipientsFile string
}

// Load reads configuration from the environment with local-dev defaults.
func Load() *Config {
	return &Config{
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		PostgresDSN:         getEnv("POSTGRES_DSN", ""),
		DBMaxConns:          int32(getEnvInt("DB_MAX_CONNS", 10)),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		KafkaBrokers:        splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "plantwatch.alerts"),
		CycleInterval:       getEnvDuration("CYCLE_INTERVAL", 30*time.Second),
		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", 10),
		SendTimeout:         getEnvDuration("SEND_TIMEOUT", 5*time.Second),
		RetryPolicy:         getEnv("RETRY_POLICY", "none"),
		RetryCount:          getEnvInt("RETRY_COUNT", 2),
		RetryBackoff:        getEnvDuration("RETRY_BACKOFF", 500*time.Millisecond),
		SMSGatewayURL:       getEnv("SMS_GATEWAY_URL", ""),
		SMSAPIKey:           getEnv("SMS_API_KEY", ""),
		SMSSender:           getEnv("SMS_SENDER", "PLANTWATCH"),
		ChatWebhookURL:      getEnv("CHAT_WEBHOOK_URL", ""),
		PredictURL:          getEnv("PREDICT_URL", ""),
		PredictTimeout:      getEnvDuration("PREDICT_TIMEOUT", 3*time.Second),
		RulesFile:           getEnv("RULES_FILE", ""),
		RecipientsFile:      getEnv("RECIPIENTS_FILE", ""),
	}
}

// SMSConfigured reports whether a live SMS gateway is configured
func (c *Config) SMSConfigured() bool {
	return c.SMSGatewayURL != "" && c.SMSAPIKey != ""
}

// ChatConfigured reports whether a live chat webhook is configured
func (c *Config) ChatConfigured() bool {
	return c.ChatWebhookURL != ""
}

// KafkaConfigured reports whether the alert event stream is enabled
func (c *Config) KafkaConfigured() bool {
	return len(c.KafkaBrokers) > 0
}

// RedisConfigured reports whether the cycle-result mirror is enabled
func (c *Config) RedisConfigured() bool {
	return c.RedisAddr != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
