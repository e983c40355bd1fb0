package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-v int      email verification token validity, hours
//	-r int      password reset token validity, minutes
//	-n int      username recovery token validity, minutes
//	-u string   public base URL for links in notifications
//	-e bool     require a verified email to sign in (use -e=false to disable)
//	-f string   log format: json, text or zap
//	-l string   log level
//	-q float    /auth rate limit, requests per second
//
// Only the flags listed above are taken from os.Args (see flagx.FilterArgs),
// so the -c/-config flag and foreign flags do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-d", "-s", "-t", "-v", "-r", "-n", "-u", "-e", "-f", "-l", "-q",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTTL := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	verificationTTL := fs.Int("v", int(config.VerificationTTL.Hours()), "verification token validity (in hours)")
	resetTTL := fs.Int("r", int(config.PasswordResetTTL.Minutes()), "password reset token validity (in minutes)")
	recoveryTTL := fs.Int("n", int(config.UsernameRecoveryTTL.Minutes()), "username recovery token validity (in minutes)")

	fs.StringVar(&config.PublicBaseURL, "u", config.PublicBaseURL, "public base URL")
	fs.BoolVar(&config.RequireEmailVerification, "e", config.RequireEmailVerification, "require verified email to sign in")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json|text|zap)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.Float64Var(&config.AuthRateLimit, "q", config.AuthRateLimit, "auth rate limit (req/s)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenTTL = time.Duration(*accessTTL) * time.Minute
	config.VerificationTTL = time.Duration(*verificationTTL) * time.Hour
	config.PasswordResetTTL = time.Duration(*resetTTL) * time.Minute
	config.UsernameRecoveryTTL = time.Duration(*recoveryTTL) * time.Minute
}
