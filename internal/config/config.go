package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "WHOISSPY"

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 远程词库单次请求超时
	WordFetchTimeout time.Duration `mapstructure:"word_fetch_timeout"`
	// 会话空闲多久后被清理，0 表示不清理
	SessionTimeout time.Duration `mapstructure:"session_timeout"`

	// 二维码里使用的地址，为空时根据请求推断
	PublicURL string `mapstructure:"public_url"`
	StaticDir string `mapstructure:"static_dir"`
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.WordFetchTimeout <= 0 {
		return fmt.Errorf("word_fetch_timeout must be positive: %s", c.WordFetchTimeout)
	}
	if c.SessionTimeout < 0 {
		return fmt.Errorf("session_timeout must not be negative: %s", c.SessionTimeout)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	return nil
}

// NewViper returns a viper instance with defaults and WHOISSPY_* env lookup.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("word_fetch_timeout", 5*time.Second)
	v.SetDefault("session_timeout", 6*time.Hour)
	v.SetDefault("public_url", "")
	v.SetDefault("static_dir", "./who-is-spy-fe")

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// BindFlags registers the command line flags and binds each to its config key.
// A flag wins over env and file only when it is set explicitly.
func BindFlags(flags *pflag.FlagSet, v *viper.Viper) {
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flags.StringP("host", "b", v.GetString("host"), "address to bind to (env: WHOISSPY_HOST)")
	flags.IntP("port", "p", v.GetInt("port"), "port to listen on (env: WHOISSPY_PORT)")
	flags.String("log-level", v.GetString("log_level"), "debug, info, warn or error (env: WHOISSPY_LOG_LEVEL)")
	flags.Duration("word-fetch-timeout", v.GetDuration("word_fetch_timeout"), "timeout for downloading a remote word library (env: WHOISSPY_WORD_FETCH_TIMEOUT)")
	flags.Duration("session-timeout", v.GetDuration("session_timeout"), "time before idle sessions are ended, 0 to keep forever (env: WHOISSPY_SESSION_TIMEOUT)")
	flags.String("public-url", v.GetString("public_url"), "base url encoded in the share QR code (env: WHOISSPY_PUBLIC_URL)")
	flags.String("static-dir", v.GetString("static_dir"), "directory of the web frontend (env: WHOISSPY_STATIC_DIR)")

	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

// InitConfig loads .env, then the optional config file, and decodes the
// merged result. Precedence: flag, env, file, default.
func InitConfig(v *viper.Viper, configFile string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 失败: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("app_config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// 只有未显式指定配置文件时才允许缺省
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	return &config, nil
}
