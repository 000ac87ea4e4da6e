// Package config описывает настройки сервиса и загружает их из YAML-файла
// (путь в CONFIG_PATH) с переопределением через переменные окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/membership-ipn/internal/lib/sl"
	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	PlanCacheTTL            time.Duration `yaml:"plan_cache_ttl" env:"PLAN_CACHE_TTL" env-default:"1m"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	IPN                     `yaml:"ipn"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP     string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP     time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// RedisConnection настройки подключения к redis, используется журналом обработанных транзакций
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ настройки брокера для событий подписчиков. Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// IPN настройки обработки платёжных уведомлений.
type IPN struct {
	JVZooSecretKey       string        `yaml:"jvzoo_secret_key" env:"JVZOO_SECRET_KEY"`
	ClickBankSecretKey   string        `yaml:"clickbank_secret_key" env:"CLICKBANK_SECRET_KEY"`
	ClickBankKeyEncoding string        `yaml:"clickbank_key_encoding" env:"CLICKBANK_KEY_ENCODING" env-default:"hex"`
	ProductsToIgnore     []string      `yaml:"products_to_ignore" env:"PRODUCTS_TO_IGNORE" env-separator:","`
	Timezone             string        `yaml:"timezone" env:"IPN_TIMEZONE" env-default:"UTC"`
	RelayTimeout         time.Duration `yaml:"relay_timeout" env-default:"10s"`
	DedupEnabled         bool          `yaml:"dedup_enabled" env:"IPN_DEDUP_ENABLED"`
	DedupTTL             time.Duration `yaml:"dedup_ttl" env-default:"720h"`
	RateLimitRPS         float64       `yaml:"rate_limit_rps" env-default:"20"`
	RateLimitBurst       int           `yaml:"rate_limit_burst" env-default:"40"`
}

// Location часовой пояс, в котором считаются даты подписки.
func (c IPN) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load читает конфиг из path. Переменные окружения имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JVZooSecretKey == "" && c.ClickBankSecretKey == "" {
		return errors.New("at least one of jvzoo_secret_key and clickbank_secret_key must be set")
	}
	if _, err := c.IPN.Location(); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if _, err := paymentprovider.ParseKeyEncoding(c.ClickBankKeyEncoding); err != nil {
		return err
	}
	if c.DedupEnabled && c.AddressRedis == "" {
		return errors.New("dedup_enabled requires redis_connection.addressredis")
	}
	return nil
}

// MustLoad загружает .env, если он есть, затем конфиг по пути из CONFIG_PATH.
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"IPN:\n"+
			"  JVZooSecretKey: %s\n"+
			"  ClickBankSecretKey: %s\n"+
			"  ClickBankKeyEncoding: %s\n"+
			"  ProductsToIgnore: %v\n"+
			"  Timezone: %s\n"+
			"  DedupEnabled: %t\n",
		c.Env,
		sl.Secret(c.StorageConnectionString),
		c.MigrationsPath,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		sl.Secret(c.Password),
		sl.Secret(c.RabbitMQURL),
		sl.Secret(c.JVZooSecretKey),
		sl.Secret(c.ClickBankSecretKey),
		c.ClickBankKeyEncoding,
		c.ProductsToIgnore,
		c.Timezone,
		c.DedupEnabled,
	)
}
