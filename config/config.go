// SPDX-License-Identifier: EPL-2.0

// Package config loads playbx settings from a YAML file, the environment and
// an optional .env file. Environment variables use the PLAYBX_ prefix with
// dots replaced by underscores, e.g. PLAYBX_AUDIO_SAMPLE_RATE.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ik5/playbx/playback"
)

const EnvPrefix = "PLAYBX"

type Config struct {
	Audio    Audio    `mapstructure:"audio"`
	Assets   Assets   `mapstructure:"assets"`
	Playback Playback `mapstructure:"playback"`
	Log      Log      `mapstructure:"log"`
}

type Audio struct {
	// Backend is the output device: "oto", "beep" or "null".
	Backend    string        `mapstructure:"backend"`
	SampleRate int           `mapstructure:"sample_rate"`
	Channels   int           `mapstructure:"channels"`
	Buffer     time.Duration `mapstructure:"buffer"`
}

type Assets struct {
	Root     string        `mapstructure:"root"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Watch    bool          `mapstructure:"watch"`
}

type Playback struct {
	// TickRate is the frame loop frequency in Hz.
	TickRate     int           `mapstructure:"tick_rate"`
	AllowRestart bool          `mapstructure:"allow_restart"`
	Pitch        float64       `mapstructure:"pitch"`
	FadeIn       time.Duration `mapstructure:"fade_in"`
	Volume       float64       `mapstructure:"volume"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

var backends = []string{"oto", "beep", "null"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.backend", "oto")
	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.channels", 2)
	v.SetDefault("audio.buffer", 100*time.Millisecond)

	v.SetDefault("assets.root", ".")
	v.SetDefault("assets.cache_ttl", time.Duration(0))
	v.SetDefault("assets.watch", false)

	v.SetDefault("playback.tick_rate", 60)
	v.SetDefault("playback.allow_restart", true)
	v.SetDefault("playback.pitch", 1.0)
	v.SetDefault("playback.fade_in", time.Duration(0))
	v.SetDefault("playback.volume", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// Default returns the built-in settings.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

// Load reads path, or playbx.yaml from the working directory when path is
// empty, then applies PLAYBX_ environment overrides. A missing default file
// is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("playbx")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if !slices.Contains(backends, c.Audio.Backend) {
		bad("audio.backend %q is not one of %s", c.Audio.Backend, strings.Join(backends, ", "))
	}
	if c.Audio.SampleRate <= 0 {
		bad("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels <= 0 {
		bad("audio.channels must be positive, got %d", c.Audio.Channels)
	}
	if c.Audio.Buffer < 0 {
		bad("audio.buffer must not be negative, got %s", c.Audio.Buffer)
	}

	if c.Assets.Root == "" {
		bad("assets.root must be set")
	}
	if c.Assets.CacheTTL < 0 {
		bad("assets.cache_ttl must not be negative, got %s", c.Assets.CacheTTL)
	}

	if c.Playback.TickRate <= 0 || c.Playback.TickRate > 1000 {
		bad("playback.tick_rate must be within 1..1000, got %d", c.Playback.TickRate)
	}
	if err := c.Playback.Settings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: playback: %w", ErrInvalidConfig, err))
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		bad("log rotation limits must not be negative")
	}

	return errors.Join(errs...)
}

// Settings are the initial engine settings.
func (p Playback) Settings() playback.Settings {
	return playback.Settings{
		Pitch:  p.Pitch,
		FadeIn: p.FadeIn,
		Volume: p.Volume,
	}
}

// TickInterval is the frame loop period.
func (p Playback) TickInterval() time.Duration {
	if p.TickRate <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(time.Second) / float64(p.TickRate)))
}
