// Package config loads assistant settings from a YAML file, a .env file and
// the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Resolver providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Environment variables read by Load.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvProvider  = "TRUTHTRACK_PROVIDER"
	EnvVADURL    = "VAD_SERVER_URL"
	EnvLogLevel  = "TRUTHTRACK_LOG_LEVEL"
)

type Config struct {
	OpenAIAPIKey string         `yaml:"openai_api_key"`
	GeminiAPIKey string         `yaml:"gemini_api_key"`
	Resolver     ResolverConfig `yaml:"resolver"`
	Capture      CaptureConfig  `yaml:"capture"`
	Playback     PlaybackConfig `yaml:"playback"`
	Log          LogConfig      `yaml:"log"`
}

type ResolverConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

type CaptureConfig struct {
	Language        string        `yaml:"language"`
	Interim         bool          `yaml:"interim"`
	Continuous      bool          `yaml:"continuous"`
	Model           string        `yaml:"model"`
	VADServerURL    string        `yaml:"vad_server_url"`
	EnergyThreshold float64       `yaml:"energy_threshold"`
	SilenceHold     time.Duration `yaml:"silence_hold"`
	NoSpeechTimeout time.Duration `yaml:"no_speech_timeout"`
	StopTimeout     time.Duration `yaml:"stop_timeout"`
}

type PlaybackConfig struct {
	Rate   float64 `yaml:"rate"`
	Pitch  float64 `yaml:"pitch"`
	Volume float64 `yaml:"volume"`
	Voice  string  `yaml:"voice"`
	Model  string  `yaml:"model"`
	Mute   bool    `yaml:"mute"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Provider: ProviderOpenAI,
			Timeout:  10 * time.Second,
		},
		Capture: CaptureConfig{
			Language:        "en-US",
			Interim:         true,
			EnergyThreshold: 0.02,
			SilenceHold:     900 * time.Millisecond,
			NoSpeechTimeout: 8 * time.Second,
			StopTimeout:     5 * time.Second,
		},
		Playback: PlaybackConfig{
			Rate:   0.9,
			Pitch:  1.0,
			Volume: 0.8,
			Voice:  "alloy",
			Model:  "tts-1",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load builds a Config from defaults, the optional YAML file at path, a
// .env file in the working directory and the environment, then validates
// it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvOpenAIKey); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := getenv(EnvGeminiKey); v != "" {
		c.GeminiAPIKey = v
	}
	if v := getenv(EnvProvider); v != "" {
		c.Resolver.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv(EnvVADURL); v != "" {
		c.Capture.VADServerURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Resolver.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("resolver.provider: unknown provider %q", c.Resolver.Provider)
	}
	if c.Resolver.Timeout <= 0 {
		return fmt.Errorf("resolver.timeout: must be positive, got %s", c.Resolver.Timeout)
	}
	if c.Capture.Continuous {
		return errors.New("capture.continuous: only single-utterance capture is supported")
	}
	if c.Capture.Language == "" {
		return errors.New("capture.language: must not be empty")
	}
	if c.Playback.Rate < 0.25 || c.Playback.Rate > 4 {
		return fmt.Errorf("playback.rate: must be within [0.25, 4], got %g", c.Playback.Rate)
	}
	if c.Playback.Pitch <= 0 || c.Playback.Pitch > 2 {
		return fmt.Errorf("playback.pitch: must be within (0, 2], got %g", c.Playback.Pitch)
	}
	if c.Playback.Volume < 0 || c.Playback.Volume > 1 {
		return fmt.Errorf("playback.volume: must be within [0, 1], got %g", c.Playback.Volume)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// ResolverAPIKey returns the key for the configured provider.
func (c *Config) ResolverAPIKey() string {
	switch c.Resolver.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}
