package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Journal    JournalConfig    `mapstructure:"journal"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Gatekeeper GatekeeperConfig `mapstructure:"gatekeeper"`
	Payments   PaymentsConfig   `mapstructure:"payments"`
	Webhooks   WebhooksConfig   `mapstructure:"webhooks"`
	Cookies    CookiesConfig    `mapstructure:"cookies"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// IsProduction reports whether cookies must carry the Secure flag.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type JournalConfig struct {
	Dir string `mapstructure:"dir"`
}

type HTTPConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

type GatekeeperConfig struct {
	Program string        `mapstructure:"program"`
	Script  string        `mapstructure:"script"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PaymentsConfig struct {
	MerchantID     string        `mapstructure:"merchant_id"`
	MerchantKey    string        `mapstructure:"merchant_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MockDelay      time.Duration `mapstructure:"mock_delay"`
	SoftDescriptor string        `mapstructure:"soft_descriptor"`
}

// Live reports whether real processor credentials are present.
func (c PaymentsConfig) Live() bool {
	return strings.TrimSpace(c.MerchantID) != "" && strings.TrimSpace(c.MerchantKey) != ""
}

type WebhooksConfig struct {
	TriageURL   string        `mapstructure:"triage_url"`
	InternalURL string        `mapstructure:"internal_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type CookiesConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.config")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OBI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		case configFile != "" && isMissingFile(err):
			logging.Warn(logCtx, "config file not found, fallback to defaults and env", slog.String("config_file", configFile))
		default:
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("journal_dir", cfg.Journal.Dir),
		slog.Bool("payments_live", cfg.Payments.Live()),
	)

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if strings.TrimSpace(c.Journal.Dir) == "" {
		return errors.New("journal.dir is required")
	}
	if c.Webhooks.Timeout <= 0 {
		return errors.New("webhooks.timeout must be positive")
	}
	return nil
}

func isMissingFile(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such file") || strings.Contains(msg, "cannot find the file")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "obiwork")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "backend_core/db/obi_applications.sqlite")
	v.SetDefault("journal.dir", "backend_core/logs")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.rate_limit_rps", 5.0)
	v.SetDefault("http.rate_limit_burst", 10)
	v.SetDefault("gatekeeper.program", "python3")
	v.SetDefault("gatekeeper.script", "backend_core/obi_solana_core/gatekeeper/solana_gatekeeper.py")
	v.SetDefault("gatekeeper.timeout", 10*time.Second)
	v.SetDefault("payments.merchant_id", "")
	v.SetDefault("payments.merchant_key", "")
	v.SetDefault("payments.base_url", "https://apisandbox.cieloecommerce.cielo.com.br")
	v.SetDefault("payments.timeout", 20*time.Second)
	v.SetDefault("payments.mock_delay", 1500*time.Millisecond)
	v.SetDefault("payments.soft_descriptor", "OBIWORK")
	v.SetDefault("webhooks.triage_url", "")
	v.SetDefault("webhooks.internal_url", "")
	v.SetDefault("webhooks.timeout", 3*time.Second)
	v.SetDefault("cookies.max_age", 24*time.Hour)
}
