// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// ErrConfig is returned for malformed configuration values.
var ErrConfig = errors.New("invalid configuration")

// Environment variables read by FromEnv
const (
	EnvFramesPerSecond = "KORU_FPS"
	EnvWorkers         = "KORU_ASSET_WORKERS"
	EnvMaxDimension    = "KORU_ASSET_MAX_DIMENSION"
	EnvScaler          = "KORU_ASSET_SCALER"
	EnvRoot            = "KORU_ASSET_ROOT"
	EnvBundle          = "KORU_ASSET_BUNDLE"
	EnvBundleBox       = "KORU_ASSET_BOX"
	EnvHTTPTimeout     = "KORU_ASSET_HTTP_TIMEOUT"
	EnvLogLevel        = "KORU_LOG_LEVEL"
	EnvLogJSON         = "KORU_LOG_JSON"
)

// LoadEnv loads environment files into the process environment.
// Without arguments it loads ./.env if it exists.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return err
	}
	envy.Reload()
	return nil
}

// FromEnv overrides base with any values set in the environment.
func FromEnv(base Configuration) (Configuration, error) {
	cfg := base
	var err error

	if cfg.Time.FramesPerSecond, err = envInt(EnvFramesPerSecond, cfg.Time.FramesPerSecond); err != nil {
		return base, err
	}
	if cfg.Assets.Workers, err = envInt(EnvWorkers, cfg.Assets.Workers); err != nil {
		return base, err
	}
	if cfg.Assets.MaxDimension, err = envInt(EnvMaxDimension, cfg.Assets.MaxDimension); err != nil {
		return base, err
	}
	if raw := envy.Get(EnvHTTPTimeout, ""); raw != "" {
		if cfg.Assets.HTTPTimeout, err = time.ParseDuration(raw); err != nil {
			return base, fmt.Errorf("%w: %s: %v", ErrConfig, EnvHTTPTimeout, err)
		}
	}
	if raw := envy.Get(EnvLogJSON, ""); raw != "" {
		if cfg.Log.JSON, err = strconv.ParseBool(raw); err != nil {
			return base, fmt.Errorf("%w: %s: %v", ErrConfig, EnvLogJSON, err)
		}
	}

	cfg.Assets.Scaler = envy.Get(EnvScaler, cfg.Assets.Scaler)
	cfg.Assets.Root = envy.Get(EnvRoot, cfg.Assets.Root)
	cfg.Assets.Bundle = envy.Get(EnvBundle, cfg.Assets.Bundle)
	cfg.Assets.BundleBox = envy.Get(EnvBundleBox, cfg.Assets.BundleBox)
	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)

	if cfg.Assets.Workers < 0 || cfg.Assets.MaxDimension < 0 || cfg.Time.FramesPerSecond < 0 {
		return base, fmt.Errorf("%w: negative value", ErrConfig)
	}
	return cfg, nil
}

// ConfigureLogger applies level and format to the standard logrus logger.
func ConfigureLogger(cfg LogConfiguration) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	log.SetLevel(level)
	if cfg.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s: %v", ErrConfig, key, err)
	}
	return v, nil
}
