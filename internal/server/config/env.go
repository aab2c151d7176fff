package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every variable read by parseEnv.
const envPrefix = "NDH_"

var osLookup = os.LookupEnv

// loadDotEnv copies variables from a .env file into the process environment.
// Variables already set in the environment win. A missing file is fine.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// parseEnv overlays cfg with NDH_* variables.
//
//	NDH_HTTP_ADDR, NDH_GRPC_ADDR, NDH_DATABASE_DSN, NDH_SECRET_KEY,
//	NDH_JWT_ALGORITHM, NDH_ACCESS_TOKEN_TTL, NDH_REFRESH_TOKEN_TTL,
//	NDH_BCRYPT_COST, NDH_REFRESH_TOKEN_BINDING, NDH_CACHE_DRIVER,
//	NDH_REDIS_ADDR, NDH_REDIS_DB, NDH_CACHE_TTL, NDH_CORS_ORIGINS,
//	NDH_LOG_LEVEL, NDH_LOG_FORMAT, NDH_S3_ROOT_USER, NDH_S3_ROOT_PASSWORD,
//	NDH_S3_BUCKET, NDH_S3_REGION, NDH_S3_BASE_ENDPOINT
//
// Durations use Go syntax ("30m"); NDH_CORS_ORIGINS is comma separated.
func parseEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"HTTP_ADDR":        &cfg.EndpointAddrHTTP,
		"GRPC_ADDR":        &cfg.EndpointAddrGRPC,
		"DATABASE_DSN":     &cfg.DatabaseDSN,
		"SECRET_KEY":       &cfg.SecretKey,
		"JWT_ALGORITHM":    &cfg.JWTAlgorithm,
		"CACHE_DRIVER":     &cfg.CacheDriver,
		"REDIS_ADDR":       &cfg.RedisAddr,
		"LOG_LEVEL":        &cfg.LogLevel,
		"LOG_FORMAT":       &cfg.LogFormat,
		"S3_ROOT_USER":     &cfg.S3RootUser,
		"S3_ROOT_PASSWORD": &cfg.S3RootPassword,
		"S3_BUCKET":        &cfg.S3Bucket,
		"S3_REGION":        &cfg.S3Region,
		"S3_BASE_ENDPOINT": &cfg.S3BaseEndpoint,
	}
	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &cfg.AccessTokenValidityDuration,
		"REFRESH_TOKEN_TTL": &cfg.RefreshTokenValidityDuration,
		"CACHE_TTL":         &cfg.CacheTTL,
	}
	for name, dst := range durations {
		v, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"BCRYPT_COST": &cfg.BcryptCost,
		"REDIS_DB":    &cfg.RedisDB,
	}
	for name, dst := range ints {
		v, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}

	if v, ok := lookup(envPrefix + "REFRESH_TOKEN_BINDING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREFRESH_TOKEN_BINDING: %w", envPrefix, err)
		}
		cfg.RefreshTokenBinding = b
	}

	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitList(v)
	}

	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
