package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"ecg-monitor/internal/ecg"
	"ecg-monitor/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Display  DisplayConfig  `mapstructure:"display"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Database DatabaseConfig `mapstructure:"database"`
	Capture  CaptureConfig  `mapstructure:"capture"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SerialConfig covers the sampler link. An empty port auto-detects the device.
type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// PipelineConfig holds the signal-processing parameters.
type PipelineConfig struct {
	SampleRateHz         int           `mapstructure:"sample_rate_hz"`
	DisplayWindowSeconds int           `mapstructure:"display_window_seconds"`
	BaselineFilterWidth  int           `mapstructure:"baseline_filter_width"`
	MinHeartRate         int           `mapstructure:"min_heart_rate"`
	MaxHeartRate         int           `mapstructure:"max_heart_rate"`
	HistoryLength        int           `mapstructure:"history_length"`
	RecomputeInterval    time.Duration `mapstructure:"recompute_interval"`
}

// ECG converts the section into the pipeline's own configuration type.
func (p PipelineConfig) ECG() ecg.Config {
	return ecg.Config{
		SampleRateHz:         p.SampleRateHz,
		DisplayWindowSeconds: p.DisplayWindowSeconds,
		BaselineFilterWidth:  p.BaselineFilterWidth,
		MinHeartRate:         p.MinHeartRate,
		MaxHeartRate:         p.MaxHeartRate,
		HistoryLength:        p.HistoryLength,
		RecomputeInterval:    p.RecomputeInterval,
	}
}

// MonitorConfig governs the poll loop cadence.
type MonitorConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// DisplayConfig sets up the HTTP read-only display surface.
type DisplayConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// AlertingConfig defines alert thresholds and routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	LowBPM   int            `mapstructure:"low_bpm"`
	HighBPM  int            `mapstructure:"high_bpm"`
	LeadOff  bool           `mapstructure:"lead_off"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram delivery parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the alert audit log.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CaptureConfig sets CLI capture/export behaviour.
type CaptureConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ECGWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ecgwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("serial.read_timeout", "5ms")

	v.SetDefault("pipeline.sample_rate_hz", 250)
	v.SetDefault("pipeline.display_window_seconds", 6)
	v.SetDefault("pipeline.baseline_filter_width", 25)
	v.SetDefault("pipeline.min_heart_rate", 40)
	v.SetDefault("pipeline.max_heart_rate", 200)
	v.SetDefault("pipeline.history_length", 5)
	v.SetDefault("pipeline.recompute_interval", "1s")

	v.SetDefault("monitor.tick_interval", "15ms")
	v.SetDefault("monitor.startup_delay", "0s")

	v.SetDefault("display.enabled", true)
	v.SetDefault("display.listen_addr", ":8080")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.low_bpm", 50)
	v.SetDefault("alerting.high_bpm", 120)
	v.SetDefault("alerting.lead_off", true)
	v.SetDefault("alerting.cooldown", "2m")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("capture.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Pipeline.SampleRateHz <= 0 {
		return fmt.Errorf("pipeline.sample_rate_hz must be greater than zero")
	}
	if c.Pipeline.DisplayWindowSeconds <= 0 {
		return fmt.Errorf("pipeline.display_window_seconds must be greater than zero")
	}
	if c.Pipeline.BaselineFilterWidth <= 0 {
		return fmt.Errorf("pipeline.baseline_filter_width must be greater than zero")
	}
	if c.Pipeline.MinHeartRate <= 0 || c.Pipeline.MaxHeartRate <= c.Pipeline.MinHeartRate {
		return fmt.Errorf("pipeline heart-rate bounds must satisfy 0 < min < max")
	}
	if c.Pipeline.HistoryLength <= 0 {
		return fmt.Errorf("pipeline.history_length must be greater than zero")
	}
	if c.Pipeline.RecomputeInterval <= 0 {
		return fmt.Errorf("pipeline.recompute_interval must be greater than zero")
	}
	if c.Monitor.TickInterval <= 0 {
		return fmt.Errorf("monitor.tick_interval must be greater than zero")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be greater than zero")
	}
	if c.Capture.MaxDataPoints <= 0 {
		return fmt.Errorf("capture.max_data_points must be greater than zero")
	}
	if c.Alerting.Enabled && c.Alerting.HighBPM <= c.Alerting.LowBPM {
		return fmt.Errorf("alerting.high_bpm must exceed alerting.low_bpm")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Capture.MaxDataPoints
}
