package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/flagx"
	"github.com/dmitrijs2005/forumtrust/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "72h" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from the zero value.
type JsonConfig struct {
	HTTPAddr                 string          `json:"http_addr"`
	GRPCAddr                 string          `json:"grpc_addr"`
	DatabaseDSN              string          `json:"database_dsn"`
	SecretKey                string          `json:"secret_key"`
	AccessTokenTTL           *timex.Duration `json:"access_token_ttl"`
	VerificationTTL          *timex.Duration `json:"verification_ttl"`
	PasswordResetTTL         *timex.Duration `json:"password_reset_ttl"`
	UsernameRecoveryTTL      *timex.Duration `json:"username_recovery_ttl"`
	PublicBaseURL            string          `json:"public_base_url"`
	RequireEmailVerification *bool           `json:"require_email_verification"`
	LogFormat                string          `json:"log_format"`
	LogLevel                 string          `json:"log_level"`
	AuthRateLimit            *float64        `json:"auth_rate_limit"`
}

// parseJson loads configuration values from a JSON file into config.
//
// The file path comes from the -c/-config flags or the FORUMTRUST_CONFIG
// environment variable; without either nothing is loaded. Only keys present
// in the file override config. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlayString(&config.HTTPAddr, c.HTTPAddr)
	overlayString(&config.GRPCAddr, c.GRPCAddr)
	overlayString(&config.DatabaseDSN, c.DatabaseDSN)
	overlayString(&config.SecretKey, c.SecretKey)
	overlayDuration(&config.AccessTokenTTL, c.AccessTokenTTL)
	overlayDuration(&config.VerificationTTL, c.VerificationTTL)
	overlayDuration(&config.PasswordResetTTL, c.PasswordResetTTL)
	overlayDuration(&config.UsernameRecoveryTTL, c.UsernameRecoveryTTL)
	overlayString(&config.PublicBaseURL, c.PublicBaseURL)
	overlayString(&config.LogFormat, c.LogFormat)
	overlayString(&config.LogLevel, c.LogLevel)

	if c.RequireEmailVerification != nil {
		config.RequireEmailVerification = *c.RequireEmailVerification
	}
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
