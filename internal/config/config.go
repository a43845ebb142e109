package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "WATCHPARTY"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	// Secret signs the cookie session store.
	Secret string `mapstructure:"secret"`

	Auth       AuthConfig   `mapstructure:"auth"`
	Log        LogConfig    `mapstructure:"log"`
	Limits     LimitsConfig `mapstructure:"limits"`
	ICEServers []ICEServer  `mapstructure:"ice_servers"`
	SeedRooms  []SeedRoom   `mapstructure:"seed_rooms"`
}

type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type LimitsConfig struct {
	MaxChatLen     int     `mapstructure:"max_chat_len"`
	MaxReactionLen int     `mapstructure:"max_reaction_len"`
	ChatRate       float64 `mapstructure:"chat_rate"`
	ChatBurst      int     `mapstructure:"chat_burst"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type SeedRoom struct {
	ID           string `mapstructure:"id"`
	Title        string `mapstructure:"title"`
	StreamSource string `mapstructure:"stream_source"`
}

var defaultICEServers = []ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}

// Load reads config/config.<CONFIG_ENV>.yaml (env "dev" when unset).
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads one YAML file on top of the defaults, then applies
// WATCHPARTY_* environment overrides. A missing file is not an error.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.ICEServers) == 0 {
		cfg.ICEServers = defaultICEServers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Int("seed_rooms", len(cfg.SeedRooms)).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", "12h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("limits.max_chat_len", 500)
	v.SetDefault("limits.max_reaction_len", 32)
	v.SetDefault("limits.chat_rate", 5.0)
	v.SetDefault("limits.chat_burst", 10)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.Auth.Secret == "":
		return fmt.Errorf("%w: auth.secret is required", ErrInvalidConfig)
	case c.Secret == "":
		return fmt.Errorf("%w: secret is required for cookie sessions", ErrInvalidConfig)
	case c.PingPeriod <= 0 || c.PongWait <= c.PingPeriod:
		return fmt.Errorf("%w: pong_wait must exceed ping_period", ErrInvalidConfig)
	case c.WriteWait <= 0:
		return fmt.Errorf("%w: write_wait must be positive", ErrInvalidConfig)
	case c.SendBuffer <= 0:
		return fmt.Errorf("%w: send_buffer must be positive", ErrInvalidConfig)
	case c.ReadLimit <= 0:
		return fmt.Errorf("%w: read_limit must be positive", ErrInvalidConfig)
	case c.Limits.MaxChatLen <= 0 || c.Limits.MaxReactionLen <= 0:
		return fmt.Errorf("%w: limits must be positive", ErrInvalidConfig)
	}
	for _, s := range c.ICEServers {
		if len(s.URLs) == 0 {
			return fmt.Errorf("%w: ice server without urls", ErrInvalidConfig)
		}
	}
	for _, r := range c.SeedRooms {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("%w: seed room without id", ErrInvalidConfig)
		}
	}
	return nil
}
