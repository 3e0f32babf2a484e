package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type AdminConfig struct {
	// Bcrypt hash of the command-surface credential.
	PasswordHash string `yaml:"password_hash"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// Feed describes one forum board to scan: which category and target kind it
// carries, where its thread listing lives, and which structured fields hold
// the values to match. Selector strings are configuration, not code.
type Feed struct {
	Name            string `yaml:"name"`
	Category        string `yaml:"category"` // de | pl
	Kind            string `yaml:"kind"`     // player | admin
	BoardURL        string `yaml:"board_url"`
	PrimarySelector string `yaml:"primary_selector"`
	ClosedSelector  string `yaml:"closed_selector"`
}

type ScanConfig struct {
	Interval        time.Duration `yaml:"interval"`
	RosterInterval  time.Duration `yaml:"roster_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	FetchAttempts   int           `yaml:"fetch_attempts"`
	BlockedMarkers  []string      `yaml:"blocked_markers"`
	ExcludePatterns []string      `yaml:"exclude_patterns"`
	Feeds           []Feed        `yaml:"feeds"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

type SinksConfig struct {
	// Group notification channel (mentions + embed), one post per thread.
	ChannelWebhook string `yaml:"channel_webhook"`
	// Administrative channel for registration-request traffic.
	AdminWebhook string `yaml:"admin_webhook"`
	// Channel receiving the periodic watch-roster post.
	RosterWebhook string `yaml:"roster_webhook"`
	// Relay endpoint that turns {user_id, embed} into a personal DM.
	DirectURL string         `yaml:"direct_url"`
	Telegram  TelegramConfig `yaml:"telegram"`
}

type Config struct {
	DB     DBConfig     `yaml:"db"`
	MQ     MQConfig     `yaml:"mq"`
	Redis  RedisConfig  `yaml:"redis"`
	JWT    JWTConfig    `yaml:"jwt"`
	Admin  AdminConfig  `yaml:"admin"`
	Server ServerConfig `yaml:"server"`
	Scan   ScanConfig   `yaml:"scan"`
	Sinks  SinksConfig  `yaml:"sinks"`
}

func Load() *Config {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Scan.Interval == 0 {
		cfg.Scan.Interval = 3 * time.Minute
	}
	if cfg.Scan.RosterInterval == 0 {
		cfg.Scan.RosterInterval = 15 * time.Minute
	}
	if cfg.Scan.FetchTimeout == 0 {
		cfg.Scan.FetchTimeout = 30 * time.Second
	}
	if cfg.Scan.FetchAttempts == 0 {
		cfg.Scan.FetchAttempts = 3
	}
	if cfg.Sinks.Telegram.APIURL == "" {
		cfg.Sinks.Telegram.APIURL = "https://api.telegram.org"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
}

// Validate rejects feed definitions the scanner could not act on.
func Validate(cfg *Config) error {
	for i, feed := range cfg.Scan.Feeds {
		if feed.Name == "" {
			return fmt.Errorf("feed %d: name is required", i)
		}
		if feed.Category != "de" && feed.Category != "pl" {
			return fmt.Errorf("feed %s: category must be de or pl", feed.Name)
		}
		if feed.Kind != "player" && feed.Kind != "admin" {
			return fmt.Errorf("feed %s: kind must be player or admin", feed.Name)
		}
		if feed.BoardURL == "" {
			return fmt.Errorf("feed %s: board_url is required", feed.Name)
		}
		if feed.PrimarySelector == "" {
			return fmt.Errorf("feed %s: primary_selector is required", feed.Name)
		}
	}
	return nil
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.Admin.PasswordHash = hash
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		cfg.Sinks.Telegram.Token = token
	}
}

// DatabaseURL renders the pgx/migrate connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name,
	)
}
