package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-l string   log level
//
// Arguments are filtered with flagx.FilterArgs first, so the config file
// flag and subcommand names do not get in the way.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
	return nil
}
