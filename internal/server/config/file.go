package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/nestdevhive/internal/flagx"
	"github.com/dmitrijs2005/nestdevhive/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from zero values so that a partial file only overrides
// what it mentions.
type fileConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    *string         `json:"secret_key" yaml:"secret_key"`
	JWTAlgorithm                 *string         `json:"jwt_algorithm" yaml:"jwt_algorithm"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	RefreshTokenBinding          *bool           `json:"refresh_token_binding" yaml:"refresh_token_binding"`
	CacheDriver                  *string         `json:"cache_driver" yaml:"cache_driver"`
	RedisAddr                    *string         `json:"redis_addr" yaml:"redis_addr"`
	RedisDB                      *int            `json:"redis_db" yaml:"redis_db"`
	CacheTTL                     *timex.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	CORSOrigins                  []string        `json:"cors_origins" yaml:"cors_origins"`
	LogLevel                     *string         `json:"log_level" yaml:"log_level"`
	LogFormat                    *string         `json:"log_format" yaml:"log_format"`
	S3RootUser                   *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile overlays cfg with the file named by -c/-config, if any.
// Files ending in .yaml or .yml are read as YAML, everything else as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return err
	}

	fc.apply(cfg)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&cfg.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.SecretKey, fc.SecretKey)
	setString(&cfg.JWTAlgorithm, fc.JWTAlgorithm)
	setString(&cfg.CacheDriver, fc.CacheDriver)
	setString(&cfg.RedisAddr, fc.RedisAddr)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.S3RootUser, fc.S3RootUser)
	setString(&cfg.S3RootPassword, fc.S3RootPassword)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)

	if fc.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration != nil {
		cfg.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.CacheTTL != nil {
		cfg.CacheTTL = fc.CacheTTL.Duration
	}
	if fc.BcryptCost != nil {
		cfg.BcryptCost = *fc.BcryptCost
	}
	if fc.RefreshTokenBinding != nil {
		cfg.RefreshTokenBinding = *fc.RefreshTokenBinding
	}
	if fc.RedisDB != nil {
		cfg.RedisDB = *fc.RedisDB
	}
	if fc.CORSOrigins != nil {
		cfg.CORSOrigins = fc.CORSOrigins
	}
}
