package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type S3Config struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
	Prefix        string
}

type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret string
	JWTIssuer string

	StripeSecretKey     string
	StripeWebhookSecret string

	S3 S3Config

	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string

	PushGatewayURL string
	PushGatewayKey string

	AIProvider        string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	CustomAIBaseURL   string
	CustomAIAPIKey    string
	GenerationWorkers int
	GenerationTimeout time.Duration

	SignupBonusTokens  int
	TurnstileSecretKey string
	AllowOrigins       string
}

// Load reads configuration from environment variables, applying defaults and
// reporting the variables the service cannot run without.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getEnv("JWT_ISSUER", "pixelmint"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		S3: S3Config{
			Region:        getEnv("S3_REGION", "auto"),
			Endpoint:      os.Getenv("S3_ENDPOINT"),
			AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("S3_SECRET_KEY"),
			Bucket:        os.Getenv("S3_BUCKET"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
			UsePathStyle:  getBool("S3_USE_PATH_STYLE", false),
			Prefix:        getEnv("S3_PREFIX", "uploads"),
		},

		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		EmailFrom:     getEnv("EMAIL_FROM_ADDRESS", "noreply@pixelmint.app"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Pixelmint"),

		PushGatewayURL: os.Getenv("PUSH_GATEWAY_URL"),
		PushGatewayKey: os.Getenv("PUSH_GATEWAY_KEY"),

		AIProvider:        getEnv("AI_PROVIDER", "mock"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		CustomAIBaseURL:   os.Getenv("CUSTOM_AI_BASE_URL"),
		CustomAIAPIKey:    os.Getenv("CUSTOM_AI_API_KEY"),
		GenerationWorkers: getInt("GENERATION_WORKERS", 2),
		GenerationTimeout: time.Second * time.Duration(getInt("GENERATION_TIMEOUT_SECONDS", 120)),

		SignupBonusTokens:  getInt("SIGNUP_BONUS_TOKENS", 10),
		TurnstileSecretKey: os.Getenv("CF_TURNSTILE_SECRET_KEY"),
		AllowOrigins:       getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
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

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
