package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Telegram struct {
		Token          string
		PrimaryAdminID int64 `mapstructure:"primary_admin_id"`
		PollTimeout    int   `mapstructure:"poll_timeout"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Session struct {
		Backend       string
		RedisAddr     string        `mapstructure:"redis_addr"`
		RedisPassword string        `mapstructure:"redis_password"`
		TTL           time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Broadcast struct {
		Workers int
	} `mapstructure:"broadcast"`
}

// Load reads .env (if present), then the YAML file at path (if present),
// then APP_* environment overrides, e.g. APP_TELEGRAM_TOKEN.
func Load(path string) (Config, error) {
	var c Config

	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.Load(".env"); err != nil {
			return c, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return c, fmt.Errorf("read config: %w", err)
			}
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

// setDefaults also registers every key, otherwise AutomaticEnv is not
// consulted by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.primary_admin_id", 0)
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("session.backend", "postgres")
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.redis_password", "")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("broadcast.workers", 8)
}

func (c Config) Validate() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	if c.Telegram.PrimaryAdminID == 0 {
		errs = append(errs, errors.New("telegram.primary_admin_id is required"))
	}
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	switch c.Session.Backend {
	case "postgres", "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("session.redis_addr is required for redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session.backend %q", c.Session.Backend))
	}
	if c.Broadcast.Workers < 1 {
		errs = append(errs, errors.New("broadcast.workers must be positive"))
	}
	return errors.Join(errs...)
}
