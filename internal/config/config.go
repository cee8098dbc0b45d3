// Package config loads deployment configuration from the environment.
// Every key is read with the INKWELL_ prefix, e.g. INKWELL_REDIS_ADDR.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

const (
	BackendDisk      = "disk"
	BackendAssetHost = "asset-host"
)

type Config struct {
	ListenAddr string
	RedisAddr  string
	DataDir    string

	UploadBackend  string
	UploadDir      string
	UploadMaxBytes int64
	AssetHostURL   string
	AssetHostKey   string

	LogMode string // dev or prod
}

// Load reads the environment and validates the combination. A missing store
// endpoint or an incomplete asset-host deployment is a startup-time error;
// the process must not serve traffic.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INKWELL")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("data_dir", "./inkwell-data")
	v.SetDefault("upload_backend", BackendDisk)
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("upload_max_bytes", 10<<20)
	v.SetDefault("log_mode", "dev")

	cfg := &Config{
		ListenAddr:     v.GetString("listen_addr"),
		RedisAddr:      v.GetString("redis_addr"),
		DataDir:        v.GetString("data_dir"),
		UploadBackend:  v.GetString("upload_backend"),
		UploadDir:      v.GetString("upload_dir"),
		UploadMaxBytes: v.GetInt64("upload_max_bytes"),
		AssetHostURL:   v.GetString("asset_host_url"),
		AssetHostKey:   v.GetString("asset_host_key"),
		LogMode:        v.GetString("log_mode"),
	}

	if cfg.RedisAddr == "" {
		return nil, errors.New("INKWELL_REDIS_ADDR is required")
	}
	switch cfg.UploadBackend {
	case BackendDisk:
	case BackendAssetHost:
		if cfg.AssetHostURL == "" || cfg.AssetHostKey == "" {
			return nil, errors.New("asset-host backend needs INKWELL_ASSET_HOST_URL and INKWELL_ASSET_HOST_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
	if cfg.UploadMaxBytes <= 0 {
		return nil, errors.New("INKWELL_UPLOAD_MAX_BYTES must be positive")
	}

	return cfg, nil
}
