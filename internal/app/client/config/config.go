package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress  = "localhost:8080"
	defaultLogLevel       = "info"
	defaultEnv            = "local"
	defaultConfigDir      = ".milkcollect"
	defaultBridgeAddress  = "127.0.0.1:8765"
	defaultSyncInterval   = 300
	defaultHealthInterval = 30
	defaultCheckTimeout   = 5
	defaultReceiptLimit   = 100
)

type Config struct {
	Env            string `mapstructure:"app_env"`
	ServerAddress  string `mapstructure:"server_address"`
	EnableTLS      bool   `mapstructure:"enable_tls"`
	ConfigDir      string `mapstructure:"config_dir"`
	DataPath       string `mapstructure:"data_path"`
	LogLevel       string `mapstructure:"log_level"`
	LogFile        string `mapstructure:"log_file"`
	SyncInterval   int    `mapstructure:"sync_interval_seconds"`
	HealthInterval int    `mapstructure:"health_interval_seconds"`
	CheckTimeout   int    `mapstructure:"check_timeout_seconds"`
	BridgeAddress  string `mapstructure:"bridge_address"`
	ReceiptLimit   int    `mapstructure:"receipt_cache_limit"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	v.SetDefault("ENABLE_TLS", false)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("SYNC_INTERVAL_SECONDS", defaultSyncInterval)
	v.SetDefault("HEALTH_INTERVAL_SECONDS", defaultHealthInterval)
	v.SetDefault("CHECK_TIMEOUT_SECONDS", defaultCheckTimeout)
	v.SetDefault("BRIDGE_ADDRESS", defaultBridgeAddress)
	v.SetDefault("RECEIPT_CACHE_LIMIT", defaultReceiptLimit)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, configDir)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	dataPath := v.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "queue.db")
	}

	cfg := &Config{
		Env:            v.GetString("APP_ENV"),
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		EnableTLS:      v.GetBool("ENABLE_TLS"),
		ConfigDir:      configDir,
		DataPath:       dataPath,
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFile:        v.GetString("LOG_FILE"),
		SyncInterval:   v.GetInt("SYNC_INTERVAL_SECONDS"),
		HealthInterval: v.GetInt("HEALTH_INTERVAL_SECONDS"),
		CheckTimeout:   v.GetInt("CHECK_TIMEOUT_SECONDS"),
		BridgeAddress:  v.GetString("BRIDGE_ADDRESS"),
		ReceiptLimit:   v.GetInt("RECEIPT_CACHE_LIMIT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_seconds должен быть положительным")
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("health_interval_seconds должен быть положительным")
	}
	if c.CheckTimeout <= 0 {
		return fmt.Errorf("check_timeout_seconds должен быть положительным")
	}
	if c.ReceiptLimit <= 0 {
		return fmt.Errorf("receipt_cache_limit должен быть положительным")
	}
	return nil
}

// BaseURL адрес бэкенда со схемой
func (c *Config) BaseURL() string {
	if c.EnableTLS {
		return "https://" + c.ServerAddress
	}
	return "http://" + c.ServerAddress
}

func (c *Config) SyncEvery() time.Duration {
	return time.Duration(c.SyncInterval) * time.Second
}

func (c *Config) HealthEvery() time.Duration {
	return time.Duration(c.HealthInterval) * time.Second
}

func (c *Config) CheckTimeoutDuration() time.Duration {
	return time.Duration(c.CheckTimeout) * time.Second
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
