package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything supplied from outside the record store:
// server settings plus the sync settings (endpoint URL, enumerator
// name) the form can change at runtime.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Sync   SyncConfig   `mapstructure:"sync"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type SyncConfig struct {
	EndpointURL          string `mapstructure:"endpoint_url"`
	Enumerator           string `mapstructure:"enumerator"`
	PushTimeoutSeconds   int    `mapstructure:"push_timeout_seconds"`
	ProbeURL             string `mapstructure:"probe_url"`
	ProbeIntervalSeconds int    `mapstructure:"probe_interval_seconds"`
}

// Load reads config.yaml (optional) with CENSUS_* env overrides.
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("CENSUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("store.path", "data/census.db")
	viper.SetDefault("sync.endpoint_url", "")
	viper.SetDefault("sync.enumerator", "")
	viper.SetDefault("sync.push_timeout_seconds", 30)
	viper.SetDefault("sync.probe_url", "")
	viper.SetDefault("sync.probe_interval_seconds", 15)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("[Config] Failed to read config file: %v", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		log.Fatalf("[Config] Failed to parse configuration: %v", err)
	}
	return cfg
}

// SaveSyncSettings persists changed sync settings back to the config
// file so they survive restarts. Settings deliberately live outside the
// record store.
func SaveSyncSettings(endpointURL, enumerator string) error {
	viper.Set("sync.endpoint_url", endpointURL)
	viper.Set("sync.enumerator", enumerator)

	if err := viper.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return viper.SafeWriteConfig()
		}
		return err
	}
	return nil
}

// PushTimeout returns the remote push timeout as a duration.
func (c *SyncConfig) PushTimeout() time.Duration {
	return time.Duration(c.PushTimeoutSeconds) * time.Second
}

// ProbeInterval returns the connectivity probe cadence.
func (c *SyncConfig) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalSeconds) * time.Second
}
