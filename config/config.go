// Package config loads the engine settings. ZKPOKER_* environment variables
// override the YAML file, which overrides the built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "ZKPOKER"

// Store backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

type Config struct {
	Game   GameConfig   `mapstructure:"game" yaml:"game"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Keys   KeysConfig   `mapstructure:"keys" yaml:"keys"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type GameConfig struct {
	SmallBlind  int64         `mapstructure:"small_blind"`
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	// Retention is how long a game outlives its last write.
	Retention time.Duration `mapstructure:"retention"`
	// ReplayWindow is how long consumed proofs are remembered.
	ReplayWindow time.Duration `mapstructure:"replay_window"`
	// WatchInterval is how often the watchdog looks for expired turns.
	WatchInterval time.Duration `mapstructure:"watch_interval"`
}

// MarshalYAML writes durations in their readable form.
func (g GameConfig) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"small_blind":    g.SmallBlind,
		"turn_timeout":   g.TurnTimeout.String(),
		"retention":      g.Retention.String(),
		"replay_window":  g.ReplayWindow.String(),
		"watch_interval": g.WatchInterval.String(),
	}, nil
}

// Rules returns the table parameters of the manager.
func (g GameConfig) Rules() poker.Rules {
	return poker.Rules{SmallBlind: g.SmallBlind, TurnTimeout: g.TurnTimeout}
}

type StoreConfig struct {
	Backend    string      `mapstructure:"backend" yaml:"backend"`
	Dir        string      `mapstructure:"dir" yaml:"dir"`
	SyncWrites bool        `mapstructure:"sync_writes" yaml:"sync_writes"`
	Redis      RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	TLS     bool   `mapstructure:"tls" yaml:"tls"`
	CertDir string `mapstructure:"cert_dir" yaml:"cert_dir"`
	// AdminToken guards verification key uploads. Empty disables them.
	AdminToken string `mapstructure:"admin_token" yaml:"admin_token"`
}

type KeysConfig struct {
	// Dir holds the snarkjs verification keys installed at start and the
	// proving keys written by keygen.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Signer is the file holding the hex journal signing key.
	Signer string `mapstructure:"signer" yaml:"signer"`
}

type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Game: GameConfig{
			SmallBlind:    poker.DefaultSmallBlind,
			TurnTimeout:   poker.DefaultTurnTimeout,
			Retention:     store.DefaultRetention,
			ReplayWindow:  24 * time.Hour,
			WatchInterval: time.Second,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Dir:     "data",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "zkpoker:"},
		},
		Server: ServerConfig{Addr: ":8080", CertDir: "certs"},
		Keys:   KeysConfig{Dir: "keys", Signer: "keys/journal.key"},
		Log:    LogConfig{Level: "info", Console: true},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("game.small_blind", d.Game.SmallBlind)
	v.SetDefault("game.turn_timeout", d.Game.TurnTimeout)
	v.SetDefault("game.retention", d.Game.Retention)
	v.SetDefault("game.replay_window", d.Game.ReplayWindow)
	v.SetDefault("game.watch_interval", d.Game.WatchInterval)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.sync_writes", d.Store.SyncWrites)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", d.Store.Redis.Password)
	v.SetDefault("store.redis.db", d.Store.Redis.DB)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.tls", d.Server.TLS)
	v.SetDefault("server.cert_dir", d.Server.CertDir)
	v.SetDefault("server.admin_token", d.Server.AdminToken)
	v.SetDefault("keys.dir", d.Keys.Dir)
	v.SetDefault("keys.signer", d.Keys.Signer)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
}

// Load reads path when it is not empty, applies ZKPOKER_* overrides such as
// ZKPOKER_GAME_SMALL_BLIND and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file [%s]", path)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Game.SmallBlind <= 0 {
		return errors.Errorf("game.small_blind must be positive, got %d", c.Game.SmallBlind)
	}
	if c.Game.TurnTimeout <= 0 {
		return errors.Errorf("game.turn_timeout must be positive, got %s", c.Game.TurnTimeout)
	}
	if c.Game.WatchInterval <= 0 {
		return errors.Errorf("game.watch_interval must be positive, got %s", c.Game.WatchInterval)
	}
	if c.Game.ReplayWindow <= 0 {
		return errors.Errorf("game.replay_window must be positive, got %s", c.Game.ReplayWindow)
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Store.Dir == "" {
			return errors.New("store.dir is required by the badger backend")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required by the redis backend")
		}
	default:
		return errors.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log.level %q", c.Log.Level)
	}
	return nil
}

// Write stores c as YAML at path, creating parent directories.
func (c Config) Write(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	return errors.Wrapf(os.WriteFile(path, b, 0o600), "writing config file [%s]", path)
}
