package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress = ":8080"
	defaultAPIVersion = "2.0.0"
	defaultMigrations = "migrations"
)

type Config struct {
	Env    string
	DB     db
	Server server
	Logger logger
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
	AdminToken string `env:"ADMIN_TOKEN"`
	APIVersion string `env:"API_VERSION"`
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// MustLoad читает конфигурацию сервера из .env и переменных окружения
func MustLoad() *Config {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("failed to load %s: %v", envPath, err)
		}
	}

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", EnvLocal)
	viper.SetDefault("RUN_ADDRESS", defaultRunAddress)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	viper.SetDefault("API_VERSION", defaultAPIVersion)

	config := Config{
		Env: viper.GetString("APP_ENV"),
		DB: db{
			DatabaseURI: viper.GetString("DATABASE_URI"),
			Migrations:  viper.GetString("MIGRATIONS_PATH"),
		},
		Server: server{
			RunAddress: viper.GetString("RUN_ADDRESS"),
			AdminToken: viper.GetString("ADMIN_TOKEN"),
			APIVersion: viper.GetString("API_VERSION"),
		},
		Logger: logger{
			LogLevel: viper.GetString("LOG_LEVEL"),
			LogFile:  viper.GetString("LOG_FILE"),
		},
	}

	if err := config.validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	return &config
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}
	if c.Server.RunAddress == "" {
		return fmt.Errorf("RUN_ADDRESS must not be empty")
	}
	if c.Env == EnvProd && c.DB.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required in prod")
	}
	return nil
}

// InMemory сервер работает без PostgreSQL
func (c *Config) InMemory() bool {
	return c.DB.DatabaseURI == ""
}
