package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type UpstreamConfig struct {
	URL         string        `mapstructure:"url"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type ConnectLimitConfig struct {
	Max      int           `mapstructure:"max"`
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Mode         string             `mapstructure:"mode"`
	Port         int                `mapstructure:"port"`
	StaticPath   string             `mapstructure:"static_path"`
	ReadLimit    int64              `mapstructure:"read_limit"`
	SendBuffer   int                `mapstructure:"send_buffer"`
	PingPeriod   time.Duration      `mapstructure:"ping_period"`
	Secret       string             `mapstructure:"secret"`
	Upstream     UpstreamConfig     `mapstructure:"upstream"`
	ConnectLimit ConnectLimitConfig `mapstructure:"connect_limit"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("send_buffer", 256)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("upstream.url", "wss://localhost:9443/webcast/fetch")
	v.SetDefault("upstream.dial_timeout", "10s")
	v.SetDefault("connect_limit.max", 5)
	v.SetDefault("connect_limit.interval", "1m")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Upstream: %s\n", cfg.Mode, cfg.Port, cfg.Upstream.URL)
	return &cfg, nil
}
