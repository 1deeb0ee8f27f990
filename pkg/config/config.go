package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the engagement bot.
type Config struct {
	// Input and artifact file locations
	Files FilesConfig `yaml:"files" json:"files"`

	// Browser launch options
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Engagement pacing and retry bounds
	Engage EngageConfig `yaml:"engage" json:"engage"`

	// Number of parallel account workers
	Workers int `yaml:"workers" json:"workers"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FilesConfig holds the paths of all input files and artifact directories.
type FilesConfig struct {
	TweetFile      string `yaml:"tweet_file" json:"tweet_file"`
	CredentialFile string `yaml:"credential_file" json:"credential_file"`
	FollowingsFile string `yaml:"followings_file" json:"followings_file"`
	MediaDir       string `yaml:"media_dir" json:"media_dir"`
	AuthDir        string `yaml:"auth_dir" json:"auth_dir"`
	ResultDir      string `yaml:"result_dir" json:"result_dir"`
}

// BrowserConfig holds browser launch options.
type BrowserConfig struct {
	Headed            bool          `yaml:"headed" json:"headed"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
	SlowMotion        time.Duration `yaml:"slow_motion" json:"slow_motion"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

// EngageConfig holds the pacing intervals and retry bounds of the
// reply-and-like flow.
type EngageConfig struct {
	ScrollLimit      int           `yaml:"scroll_limit" json:"scroll_limit"`
	MediaAttempts    int           `yaml:"media_attempts" json:"media_attempts"`
	FillAttempts     int           `yaml:"fill_attempts" json:"fill_attempts"`
	PauseMin         time.Duration `yaml:"pause_min" json:"pause_min"`
	PauseMax         time.Duration `yaml:"pause_max" json:"pause_max"`
	ActionTimeout    time.Duration `yaml:"action_timeout" json:"action_timeout"`
	MediaWaitTimeout time.Duration `yaml:"media_wait_timeout" json:"media_wait_timeout"`

	// Duration is accepted for CLI compatibility but not consumed by the
	// run logic.
	Duration time.Duration `yaml:"duration" json:"duration"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with the bot's defaults.
func DefaultConfig() *Config {
	return &Config{
		Files: FilesConfig{
			TweetFile:      "contents.txt",
			CredentialFile: "credentials.txt",
			FollowingsFile: "followings.txt",
			MediaDir:       "media",
			AuthDir:        ".auth",
			ResultDir:      "result",
		},
		Browser: BrowserConfig{
			Headed: false,
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) " +
				"Chrome/119.0.0.0 Safari/537.36",
			ViewportWidth:     1980,
			ViewportHeight:    1080,
			SlowMotion:        time.Second,
			NavigationTimeout: 30 * time.Second,
		},
		Engage: EngageConfig{
			ScrollLimit:      10,
			MediaAttempts:    4,
			FillAttempts:     5,
			PauseMin:         3 * time.Second,
			PauseMax:         9 * time.Second,
			ActionTimeout:    5 * time.Second,
			MediaWaitTimeout: 3 * time.Second,
			Duration:         50 * time.Second,
		},
		Workers: 4,
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Debug reports whether verbose debug diagnostics are enabled.
func Debug() bool {
	return os.Getenv("TWEETPILOT_DEBUG") == "1"
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("TWEETPILOT_TWEET_FILE"); v != "" {
		c.Files.TweetFile = v
	}
	if v := os.Getenv("TWEETPILOT_CREDENTIAL_FILE"); v != "" {
		c.Files.CredentialFile = v
	}
	if v := os.Getenv("TWEETPILOT_FOLLOWINGS_FILE"); v != "" {
		c.Files.FollowingsFile = v
	}
	if v := os.Getenv("TWEETPILOT_MEDIA_DIR"); v != "" {
		c.Files.MediaDir = v
	}
	if v := os.Getenv("TWEETPILOT_AUTH_DIR"); v != "" {
		c.Files.AuthDir = v
	}
	if v := os.Getenv("TWEETPILOT_RESULT_DIR"); v != "" {
		c.Files.ResultDir = v
	}
	if v := os.Getenv("TWEETPILOT_WORKERS"); v != "" {
		var val int
		fmt.Sscanf(v, "%d", &val)
		if val > 0 {
			c.Workers = val
		}
	}
	if v := os.Getenv("TWEETPILOT_HEADED"); v != "" {
		c.Browser.Headed = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("TWEETPILOT_USER_AGENT"); v != "" {
		c.Browser.UserAgent = v
	}
	if v := os.Getenv("TWEETPILOT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".tweetpilot.yaml",
		".tweetpilot.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "tweetpilot", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "tweetpilot", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".tweetpilot.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Files.TweetFile == "" {
		errs = append(errs, errors.New("tweet content file is required"))
	}
	if c.Files.CredentialFile == "" {
		errs = append(errs, errors.New("credential file is required"))
	}
	if c.Files.FollowingsFile == "" {
		errs = append(errs, errors.New("followings file is required"))
	}
	if c.Files.MediaDir == "" {
		errs = append(errs, errors.New("media directory is required"))
	}
	if c.Files.ResultDir == "" {
		errs = append(errs, errors.New("result directory is required"))
	}

	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}

	if c.Engage.ScrollLimit <= 0 {
		errs = append(errs, errors.New("scroll limit must be positive"))
	}
	if c.Engage.MediaAttempts <= 0 {
		errs = append(errs, errors.New("media attempts must be positive"))
	}
	if c.Engage.FillAttempts <= 0 {
		errs = append(errs, errors.New("fill attempts must be positive"))
	}
	if c.Engage.PauseMin < 0 || c.Engage.PauseMax < c.Engage.PauseMin {
		errs = append(errs, errors.New("pause interval is invalid"))
	}

	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, errors.New("viewport dimensions must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["tweet-file"].(string); ok && v != "" {
		c.Files.TweetFile = v
	}
	if v, ok := flags["credential"].(string); ok && v != "" {
		c.Files.CredentialFile = v
	}
	if v, ok := flags["followings"].(string); ok && v != "" {
		c.Files.FollowingsFile = v
	}
	if v, ok := flags["media-dir"].(string); ok && v != "" {
		c.Files.MediaDir = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Workers = v
	}
	if v, ok := flags["headed"].(bool); ok {
		c.Browser.Headed = v
	}
	if v, ok := flags["duration"].(time.Duration); ok && v > 0 {
		c.Engage.Duration = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file >
// config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetpilot.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
