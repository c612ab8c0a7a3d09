package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration, loaded from environment
// variables with an optional YAML file for provider tuning.
type Config struct {
	Server ServerConfig
	Data   DataConfig
	Log    LogConfig
	Media  MediaConfig
	Speech SpeechConfig
	Edit   EditConfig
}

type ServerConfig struct {
	Env  string // dev, staging, production
	Port string
}

// DataConfig holds the directories the service writes to.
type DataConfig struct {
	AudioDir     string
	ScratchDir   string
	AuditLogPath string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

// MediaConfig controls the ffmpeg toolchain.
type MediaConfig struct {
	FFmpegPath     string
	MaxConcurrent  int
	TimeoutSeconds int
}

// SpeechConfig selects and authenticates the speech backend.
type SpeechConfig struct {
	Provider         string // elevenlabs, openai, mock
	ElevenLabsAPIKey string
	OpenAIAPIKey     string
	OpenAIBaseURL    string

	// SettingsFile optionally points at a YAML file with provider voice
	// tuning. Missing file is not an error when the variable is unset.
	SettingsFile string
	Settings     ProviderSettings
}

// ProviderSettings is the YAML-tunable part of the speech backend.
type ProviderSettings struct {
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	DefaultVoice    string  `yaml:"default_voice"`
}

// EditConfig tunes the edit pipeline.
type EditConfig struct {
	MeasuredTiming bool
	SynthRetries   int

	// TimeoutSeconds bounds one whole edit request. Individual stages carry
	// their own budgets; this is the overall cap the HTTP layer enforces.
	TimeoutSeconds int
}

// GlobalConfig is the loaded configuration instance.
var GlobalConfig *Config

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("ENV", "dev"),
			Port: getEnv("PORT", "8000"),
		},
		Data: DataConfig{
			AudioDir:     getEnv("AUDIO_DIR", "./audio"),
			ScratchDir:   getEnv("SCRATCH_DIR", os.TempDir()),
			AuditLogPath: getEnv("AUDIT_LOG_PATH", "./audit_logs/edits.log"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Media: MediaConfig{
			FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
			MaxConcurrent:  getEnvInt("MAX_CONCURRENT_FFMPEG", 4),
			TimeoutSeconds: getEnvInt("FFMPEG_TIMEOUT_SECONDS", 120),
		},
		Speech: SpeechConfig{
			Provider:         getEnv("SPEECH_PROVIDER", "elevenlabs"),
			ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),
			OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
			SettingsFile:     getEnv("PROVIDER_SETTINGS_FILE", ""),
			Settings: ProviderSettings{
				Stability:       0.5,
				SimilarityBoost: 0.75,
			},
		},
		Edit: EditConfig{
			MeasuredTiming: getEnvBool("EDIT_MEASURED_TIMING", false),
			SynthRetries:   getEnvInt("SYNTH_RETRIES", 2),
			TimeoutSeconds: getEnvInt("EDIT_TIMEOUT_SECONDS", 600),
		},
	}

	if cfg.Speech.SettingsFile != "" {
		if err := loadProviderSettings(cfg.Speech.SettingsFile, &cfg.Speech.Settings); err != nil {
			return nil, err
		}
	}

	GlobalConfig = cfg
	return cfg, nil
}

// loadProviderSettings overlays YAML tuning onto the built-in defaults.
func loadProviderSettings(path string, out *ProviderSettings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read provider settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cannot parse provider settings %s: %w", path, err)
	}
	return nil
}

// ValidateConfig checks the loaded configuration for usability.
func ValidateConfig(cfg *Config) error {
	var errors []string

	validProviders := map[string]bool{"elevenlabs": true, "openai": true, "mock": true}
	if !validProviders[cfg.Speech.Provider] {
		errors = append(errors, fmt.Sprintf("invalid SPEECH_PROVIDER: %s (must be: elevenlabs, openai, mock)", cfg.Speech.Provider))
	}
	if cfg.Speech.Provider == "elevenlabs" && cfg.Speech.ElevenLabsAPIKey == "" {
		errors = append(errors, "ELEVENLABS_API_KEY is required when SPEECH_PROVIDER=elevenlabs")
	}
	if cfg.Speech.Provider == "openai" && cfg.Speech.OpenAIAPIKey == "" {
		errors = append(errors, "OPENAI_API_KEY is required when SPEECH_PROVIDER=openai")
	}
	if cfg.Server.Env == "production" && cfg.Speech.Provider == "mock" {
		errors = append(errors, "SPEECH_PROVIDER=mock is not allowed in production environment")
	}

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	if cfg.Media.MaxConcurrent < 1 {
		errors = append(errors, fmt.Sprintf("invalid MAX_CONCURRENT_FFMPEG: %d (must be >= 1)", cfg.Media.MaxConcurrent))
	}
	if cfg.Media.TimeoutSeconds < 1 {
		errors = append(errors, fmt.Sprintf("invalid FFMPEG_TIMEOUT_SECONDS: %d (must be >= 1)", cfg.Media.TimeoutSeconds))
	}
	if cfg.Edit.SynthRetries < 0 {
		errors = append(errors, fmt.Sprintf("invalid SYNTH_RETRIES: %d (must be >= 0)", cfg.Edit.SynthRetries))
	}
	if cfg.Edit.TimeoutSeconds < 1 {
		errors = append(errors, fmt.Sprintf("invalid EDIT_TIMEOUT_SECONDS: %d (must be >= 1)", cfg.Edit.TimeoutSeconds))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr returns the listen address.
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig renders the configuration with secrets masked.
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Data:
    - Audio Dir: %s
    - Scratch Dir: %s
    - Audit Log: %s
  Logging:
    - Level: %s
    - Format: %s
  Media:
    - FFmpeg: %s
    - Max Concurrent: %d
    - Timeout: %ds
  Speech:
    - Provider: %s
    - ElevenLabs Key: %s
    - OpenAI Key: %s
    - Default Voice: %s
  Edit:
    - Measured Timing: %t
    - Synth Retries: %d
    - Timeout: %ds`,
		c.Server.Env,
		c.Server.Port,
		c.Data.AudioDir,
		c.Data.ScratchDir,
		c.Data.AuditLogPath,
		c.Log.Level,
		c.Log.Format,
		c.Media.FFmpegPath,
		c.Media.MaxConcurrent,
		c.Media.TimeoutSeconds,
		c.Speech.Provider,
		maskSecret(c.Speech.ElevenLabsAPIKey),
		maskSecret(c.Speech.OpenAIAPIKey),
		c.Speech.Settings.DefaultVoice,
		c.Edit.MeasuredTiming,
		c.Edit.SynthRetries,
		c.Edit.TimeoutSeconds,
	)
}

// getEnv returns the environment variable or a default when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// maskSecret hides most of a sensitive value.
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
