// Package config loads the server's flat configuration via viper,
// mirroring the teacher's single-process shape in
// common/config/fixed_config.go (not the per-servicetype union in
// app_config.go, since this binary hosts one process, not a service
// mesh node).
package config

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"mahjongcore/internal/logging"
)

// Config is the process-wide configuration. CallWindow.DeadlineMS is
// the one setting Load's file watch updates in place while the server
// runs, so it is stored behind an atomic rather than decoded directly by
// viper. The update reaches only readers of this Config; a value already
// copied out (such as the match manager's deadline, taken once at
// startup) keeps its old value.
type Config struct {
	AppName    string
	ListenAddr string
	MetricPort int

	Log        LogConf
	Oracle     OracleConf
	CallWindow CallWindowConf
}

type LogConf struct {
	Level string
}

type OracleConf struct {
	ScriptsDir   string
	CacheMaxCost int64
	CacheTTL     time.Duration
}

type CallWindowConf struct {
	deadlineMS atomic.Int32
}

func (c *CallWindowConf) set(ms int) { c.deadlineMS.Store(int32(ms)) }

// DeadlineMS reads the current call-window deadline in milliseconds.
func (c *CallWindowConf) DeadlineMS() int { return int(c.deadlineMS.Load()) }

// rawConfig is the viper decode target: a plain, mapstructure-tagged
// mirror of Config used only to move values in from a file or the
// environment.
type rawConfig struct {
	AppName    string `mapstructure:"appName"`
	ListenAddr string `mapstructure:"listenAddr"`
	MetricPort int    `mapstructure:"metricPort"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Oracle struct {
		ScriptsDir   string        `mapstructure:"scriptsDir"`
		CacheMaxCost int64         `mapstructure:"cacheMaxCost"`
		CacheTTL     time.Duration `mapstructure:"cacheTTL"`
	} `mapstructure:"oracle"`

	CallWindow struct {
		DeadlineMS int `mapstructure:"deadlineMs"`
	} `mapstructure:"callWindow"`
}

func defaultRaw() rawConfig {
	var r rawConfig
	r.AppName = "mahjongcore"
	r.ListenAddr = "0.0.0.0:3000"
	r.MetricPort = 3001
	r.Log.Level = "info"
	r.Oracle.ScriptsDir = "./scripts"
	r.Oracle.CacheMaxCost = 1 << 20
	r.Oracle.CacheTTL = 10 * time.Minute
	r.CallWindow.DeadlineMS = 1500
	return r
}

func fromRaw(r rawConfig) *Config {
	cfg := &Config{
		AppName:    r.AppName,
		ListenAddr: r.ListenAddr,
		MetricPort: r.MetricPort,
		Log:        LogConf{Level: r.Log.Level},
		Oracle: OracleConf{
			ScriptsDir:   r.Oracle.ScriptsDir,
			CacheMaxCost: r.Oracle.CacheMaxCost,
			CacheTTL:     r.Oracle.CacheTTL,
		},
	}
	cfg.CallWindow.set(r.CallWindow.DeadlineMS)
	return cfg
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return fromRaw(defaultRaw())
}

// Load reads configFile over the defaults, applies an environment
// overlay, and watches the file, reloading CallWindow.DeadlineMS on
// change. An empty configFile returns Default() with no environment
// overlay and no watch.
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	raw := defaultRaw()
	if err := v.Unmarshal(&raw); err != nil {
		return nil, err
	}
	cfg := fromRaw(raw)

	v.OnConfigChange(func(e fsnotify.Event) {
		logging.Info("config file changed, reloading: %s", e.Name)
		reloaded := defaultRaw()
		if err := v.Unmarshal(&reloaded); err != nil {
			logging.Error("config reload failed: %v", err)
			return
		}
		cfg.CallWindow.set(reloaded.CallWindow.DeadlineMS)
	})
	v.WatchConfig()

	return cfg, nil
}

// CallWindowDeadline renders DeadlineMS as a time.Duration.
func (c *Config) CallWindowDeadline() time.Duration {
	return time.Duration(c.CallWindow.DeadlineMS()) * time.Millisecond
}
