package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type BlueskyConfig struct {
	ServiceURL    string `yaml:"service_url"`
	DefaultDomain string `yaml:"default_domain"`
}

type BusConfig struct {
	Timeout string `yaml:"timeout"`
}

type AuthConfig struct {
	RetainCredentialsOnFailure bool `yaml:"retain_credentials_on_failure"`
}

type ConfigFile struct {
	App     AppConfig     `yaml:"app"`
	Redis   RedisConfig   `yaml:"redis"`
	Bluesky BlueskyConfig `yaml:"bluesky"`
	Bus     BusConfig     `yaml:"bus"`
	Auth    AuthConfig    `yaml:"auth"`
}

type Config struct {
	Port                       string
	GinMode                    string
	LogLevel                   string
	RedisAddr                  string
	RedisPassword              string
	RedisDB                    int
	ServiceURL                 string
	DefaultDomain              string
	BusTimeout                 time.Duration
	RetainCredentialsOnFailure bool
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads config/config.yml and applies environment overrides. A missing
// file is not fatal; everything has a usable default.
func Load() (*Config, error) {
	configFile, err := loadConfigFile(env("POSTD_CONFIG", "config/config.yml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		configFile = &ConfigFile{}
	}

	busTimeout := 5 * time.Second
	if configFile.Bus.Timeout != "" {
		busTimeout, err = time.ParseDuration(configFile.Bus.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid bus timeout: %w", err)
		}
	}

	port := configFile.App.Port
	if port == 0 {
		port = 8787
	}

	redisDB := configFile.Redis.DB
	if v := os.Getenv("REDIS_DB"); v != "" {
		redisDB, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
	}

	serviceURL := env("BSKY_SERVICE_URL", configFile.Bluesky.ServiceURL)
	if serviceURL == "" {
		serviceURL = "https://bsky.social"
	}

	defaultDomain := env("BSKY_DOMAIN", configFile.Bluesky.DefaultDomain)
	if defaultDomain == "" {
		defaultDomain = "bsky.social"
	}

	retain := configFile.Auth.RetainCredentialsOnFailure
	if v := os.Getenv("RETAIN_CREDENTIALS_ON_FAILURE"); v != "" {
		retain = v == "true"
	}

	return &Config{
		Port:                       fmt.Sprintf("%d", port),
		GinMode:                    env("GIN_MODE", configFile.App.GinMode),
		LogLevel:                   env("LOG_LEVEL", configFile.App.LogLevel),
		RedisAddr:                  env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:              env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:                    redisDB,
		ServiceURL:                 serviceURL,
		DefaultDomain:              defaultDomain,
		BusTimeout:                 busTimeout,
		RetainCredentialsOnFailure: retain,
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
