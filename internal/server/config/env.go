package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvHTTPAddr                 = "FORUMTRUST_HTTP_ADDR"
	EnvGRPCAddr                 = "FORUMTRUST_GRPC_ADDR"
	EnvDatabaseDSN              = "FORUMTRUST_DATABASE_DSN"
	EnvSecretKey                = "FORUMTRUST_SECRET_KEY"
	EnvAccessTokenTTL           = "FORUMTRUST_ACCESS_TOKEN_TTL"
	EnvVerificationTTL          = "FORUMTRUST_VERIFICATION_TTL"
	EnvPasswordResetTTL         = "FORUMTRUST_PASSWORD_RESET_TTL"
	EnvUsernameRecoveryTTL      = "FORUMTRUST_USERNAME_RECOVERY_TTL"
	EnvPublicBaseURL            = "FORUMTRUST_PUBLIC_BASE_URL"
	EnvRequireEmailVerification = "FORUMTRUST_REQUIRE_EMAIL_VERIFICATION"
	EnvLogFormat                = "FORUMTRUST_LOG_FORMAT"
	EnvLogLevel                 = "FORUMTRUST_LOG_LEVEL"
	EnvAuthRateLimit            = "FORUMTRUST_AUTH_RATE_LIMIT"
)

// dotEnvFile is loaded, if present, before the environment is read.
// Variables already set in the process environment win.
var dotEnvFile = ".env"

// parseEnv overlays Config with FORUMTRUST_* environment variables.
// Durations use time.ParseDuration syntax ("90m", "72h").
// Malformed values panic, like a malformed JSON file does.
func parseEnv(config *Config) {
	if _, err := os.Stat(dotEnvFile); err == nil {
		if err := godotenv.Load(dotEnvFile); err != nil {
			panic(err)
		}
	}

	setString(&config.HTTPAddr, EnvHTTPAddr)
	setString(&config.GRPCAddr, EnvGRPCAddr)
	setString(&config.DatabaseDSN, EnvDatabaseDSN)
	setString(&config.SecretKey, EnvSecretKey)
	setDuration(&config.AccessTokenTTL, EnvAccessTokenTTL)
	setDuration(&config.VerificationTTL, EnvVerificationTTL)
	setDuration(&config.PasswordResetTTL, EnvPasswordResetTTL)
	setDuration(&config.UsernameRecoveryTTL, EnvUsernameRecoveryTTL)
	setString(&config.PublicBaseURL, EnvPublicBaseURL)
	setString(&config.LogFormat, EnvLogFormat)
	setString(&config.LogLevel, EnvLogLevel)

	if v, ok := os.LookupEnv(EnvRequireEmailVerification); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.RequireEmailVerification = b
	}

	if v, ok := os.LookupEnv(EnvAuthRateLimit); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.AuthRateLimit = f
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
