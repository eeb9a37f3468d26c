package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Redis         RedisConfig         `mapstructure:"redis"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Admin         AdminConfig         `mapstructure:"admin"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateWindow   time.Duration `mapstructure:"rate_window"`
}

// DatabaseConfig selects the gorm dialector. Driver is "mysql" or "sqlite".
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	AccessSecret string        `mapstructure:"access_secret"`
	AccessExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer       string        `mapstructure:"issuer"`
}

// NotificationsConfig tunes synthetic usage notifications and refresh triggers.
type NotificationsConfig struct {
	WarningRatio    float64       `mapstructure:"warning_ratio"`
	CriticalRatio   float64       `mapstructure:"critical_ratio"`
	WelcomeAge      time.Duration `mapstructure:"welcome_age"`
	CriticalAge     time.Duration `mapstructure:"critical_age"`
	WarningAge      time.Duration `mapstructure:"warning_age"`
	Debounce        time.Duration `mapstructure:"debounce"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	UpgradeURL      string        `mapstructure:"upgrade_url"`
}

// RedisConfig enables cross-instance change propagation when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8099",
			Env:          "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit:    100,
			RateWindow:   60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "copyforge.db",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: "change-me-in-production",
			AccessExpiry: 24 * time.Hour,
			Issuer:       "copyforge",
		},
		Notifications: NotificationsConfig{
			WarningRatio:    0.75,
			CriticalRatio:   0.90,
			WelcomeAge:      5 * time.Minute,
			CriticalAge:     30 * time.Minute,
			WarningAge:      60 * time.Minute,
			Debounce:        500 * time.Millisecond,
			MonitorInterval: 2 * time.Second,
			UpgradeURL:      "/pricing",
		},
		Redis: RedisConfig{
			Channel: "copyforge:changes",
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:5173"},
		},
	}
}

// Load returns the default configuration overlaid with an optional YAML file
// (COPYFORGE_CONFIG) and COPYFORGE_* environment variables, e.g.
// COPYFORGE_DATABASE_DSN or COPYFORGE_NOTIFICATIONS_DEBOUNCE=1s.
func Load() (*Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetEnvPrefix("COPYFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if path := os.Getenv("COPYFORGE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.env", cfg.Server.Env)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.rate_limit", cfg.Server.RateLimit)
	v.SetDefault("server.rate_window", cfg.Server.RateWindow)
	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.dsn", cfg.Database.DSN)
	v.SetDefault("database.max_idle_conns", cfg.Database.MaxIdleConns)
	v.SetDefault("database.max_open_conns", cfg.Database.MaxOpenConns)
	v.SetDefault("database.conn_max_lifetime", cfg.Database.ConnMaxLifetime)
	v.SetDefault("jwt.access_secret", cfg.JWT.AccessSecret)
	v.SetDefault("jwt.access_expiry", cfg.JWT.AccessExpiry)
	v.SetDefault("jwt.issuer", cfg.JWT.Issuer)
	v.SetDefault("notifications.warning_ratio", cfg.Notifications.WarningRatio)
	v.SetDefault("notifications.critical_ratio", cfg.Notifications.CriticalRatio)
	v.SetDefault("notifications.welcome_age", cfg.Notifications.WelcomeAge)
	v.SetDefault("notifications.critical_age", cfg.Notifications.CriticalAge)
	v.SetDefault("notifications.warning_age", cfg.Notifications.WarningAge)
	v.SetDefault("notifications.debounce", cfg.Notifications.Debounce)
	v.SetDefault("notifications.monitor_interval", cfg.Notifications.MonitorInterval)
	v.SetDefault("notifications.upgrade_url", cfg.Notifications.UpgradeURL)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.channel", cfg.Redis.Channel)
	v.SetDefault("cors.allow_origins", cfg.CORS.AllowOrigins)
	v.SetDefault("admin.email", cfg.Admin.Email)
	v.SetDefault("admin.password", cfg.Admin.Password)
}

// Validate rejects configurations the notification subsystem cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	n := c.Notifications
	if n.WarningRatio <= 0 || n.CriticalRatio <= n.WarningRatio {
		return fmt.Errorf("notification thresholds must satisfy 0 < warning (%v) < critical (%v)", n.WarningRatio, n.CriticalRatio)
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("jwt access secret is required")
	}
	return nil
}
