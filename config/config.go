package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the application. Components receive
// the values they need explicitly; there is no package-level settings state.
type Config struct {
	DatabaseURL string
	ServerPort  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecretKey string
	// TokenTTL bounds the participant session cookie lifetime.
	TokenTTL time.Duration
	// LoginCodeTTL and LoginCodeLength shape the bot login codes.
	LoginCodeTTL    time.Duration
	LoginCodeLength int
	// TeamPasswordLength sizes generated team join passwords.
	TeamPasswordLength int
	// BotAPIKey authenticates the bot on the code-issuing endpoint. Empty
	// disables that endpoint.
	BotAPIKey string

	CORSAllowedOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// Optional bootstrap admin created at startup if absent.
	AdminLogin    string
	AdminPassword string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	tokenTTLMinutes, err := intEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	codeTTLSeconds, err := intEnv("AUTH_CODE_EXPIRE", 300)
	if err != nil {
		return nil, err
	}
	codeLength, err := intEnv("AUTH_CODE_LENGTH", 6)
	if err != nil {
		return nil, err
	}
	if codeLength < 4 || codeLength > 32 {
		return nil, fmt.Errorf("AUTH_CODE_LENGTH must be between 4 and 32, got %d", codeLength)
	}
	teamPasswordLength, err := intEnv("TEAM_PASSWORD_LENGTH", 6)
	if err != nil {
		return nil, err
	}
	if teamPasswordLength < 4 || teamPasswordLength > 32 {
		return nil, fmt.Errorf("TEAM_PASSWORD_LENGTH must be between 4 and 32, got %d", teamPasswordLength)
	}

	origins := strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",")
	cleaned := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			cleaned = append(cleaned, origin)
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{"http://localhost:3000", "http://localhost:5175"}
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		ServerPort:         port,
		RedisAddr:          redisAddr,
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		JWTSecretKey:       jwtKey,
		TokenTTL:           time.Duration(tokenTTLMinutes) * time.Minute,
		LoginCodeTTL:       time.Duration(codeTTLSeconds) * time.Second,
		LoginCodeLength:    codeLength,
		TeamPasswordLength: teamPasswordLength,
		BotAPIKey:          os.Getenv("BOT_API_KEY"),
		CORSAllowedOrigins: cleaned,
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
		AdminLogin:         os.Getenv("ADMIN_LOGIN"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
