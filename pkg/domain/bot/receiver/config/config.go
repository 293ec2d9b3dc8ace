package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/napryag/salon_bot/pkg/utils/errs"
	"gopkg.in/yaml.v3"
)

var DefaultPath = filepath.Join("cmd/bot/etc", "app.yml")

type Config struct {
	API      APIConfig     `yaml:"api" validate:"required"`
	Storage  StorageConfig `yaml:"storage" validate:"required"`
	Bot      BotConfig     `yaml:"bot"`
	Notify   NotifyConfig  `yaml:"notify"`
	LogLevel string        `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	Timezone string        `yaml:"timezone"`

	BotToken  string `validate:"required"`
	ChannelID string
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver" validate:"required,oneof=memory postgres redis"`
	PostgresDSN   string `yaml:"postgres_dsn" validate:"required_if=Driver postgres"`
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`
}

type BotConfig struct {
	Debug         bool `yaml:"debug"`
	UpdateTimeout int  `yaml:"update_timeout" validate:"gte=0"`
	AdminPageSize int  `yaml:"admin_page_size" validate:"gte=0"`
}

type NotifyConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gte=0"`
	Attempts      int     `yaml:"attempts" validate:"gte=0"`
}

func LoadConfig() (*Config, error) {
	return Load(DefaultPath)
}

// Load reads the YAML file, applies .env and environment overrides, fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New("failed to read config file").Arg("path", path).Wrap(err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.New("failed to unmarshal YAML").Wrap(err)
	}

	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.New("failed to load .env").Wrap(err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	if err = validator.New().Struct(cfg); err != nil {
		return nil, errs.New("config validation failed").Wrap(err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.BotToken = os.Getenv("TG_TOKEN")
	c.ChannelID = os.Getenv("TG_CHANNEL_ID")
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.RedisDB = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Bot.UpdateTimeout == 0 {
		c.Bot.UpdateTimeout = 10
	}
	if c.Bot.AdminPageSize == 0 {
		c.Bot.AdminPageSize = 10
	}
	if c.Notify.RatePerSecond == 0 {
		c.Notify.RatePerSecond = 1
	}
	if c.Notify.Attempts == 0 {
		c.Notify.Attempts = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Location is the salon's time zone; "today" is computed there.
func (c *Config) Location() *time.Location {
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	return time.Local
}
