package config

import (
	"fmt"
	"time"

	"github.com/brunoksato/finbot/pkg/log"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvProd = "prod"
	EnvTest = "test"
)

type Config struct {
	Env string `yaml:"env" env:"ENV" env-upd:""`

	Postgres Postgres `yaml:"postgres"`

	Bot Bot `yaml:"bot"`

	PriceSource PriceSource `yaml:"price_source"`
}

type Postgres struct {
	Database string `yaml:"database" env:"POSTGRES_DATABASE" env-upd:""`
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-upd:""`
	Schema   string `yaml:"schema" env:"POSTGRES_SCHEMA" env-upd:""`
	Username string `yaml:"username" env:"POSTGRES_USER" env-upd:""`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-upd:""`
	Port     int64  `yaml:"port" env:"POSTGRES_PORT" env-upd:""`
}

type Bot struct {
	APIKey      string        `yaml:"api_key" env:"BOT_API_KEY" env-upd:""`
	PollTimeout time.Duration `yaml:"poll_timeout" env:"BOT_POLL_TIMEOUT" env-default:"10s"`
}

type PriceSource struct {
	BaseURL        string        `yaml:"base_url" env:"PRICE_SOURCE_BASE_URL" env-default:"https://mfinance.com.br/api/v1"`
	Timeout        time.Duration `yaml:"timeout" env:"PRICE_SOURCE_TIMEOUT" env-default:"5s"`
	Retries        uint64        `yaml:"retries" env:"PRICE_SOURCE_RETRIES" env-default:"2"`
	QuoteTTL       time.Duration `yaml:"quote_ttl" env:"QUOTE_TTL" env-default:"60s"`
	RefreshWorkers int           `yaml:"refresh_workers" env:"REFRESH_WORKERS" env-default:"8"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" env:"REFRESH_TIMEOUT" env-default:"10s"`
}

func (c *Config) GetPostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Postgres.Username, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port, c.Postgres.Database)
}

func GetConfig(configPath string) *Config {
	if configPath == "" {
		log.Fatal("config path is required")
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatal(err.Error())
	}

	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		log.Fatal(err.Error())
	}

	return &cfg
}
