package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Debug  DebugConfig  `mapstructure:"debug"`
	Poll   PollConfig   `mapstructure:"poll"`
	Wait   WaitConfig   `mapstructure:"wait"`
	Inject InjectConfig `mapstructure:"inject"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	WS     WSConfig     `mapstructure:"ws"`
	Log    LogConfig    `mapstructure:"log"`
}

// AppConfig identifies the target application on each platform.
type AppConfig struct {
	// Scheme is the URL-scheme key whose shell open command names the
	// executable in the Windows registry (HKCR\<scheme>\shell\open\command).
	Scheme string `mapstructure:"scheme"`
	// Bundle is the .app bundle path used to locate the executable on macOS.
	Bundle string `mapstructure:"bundle"`
	// Image is the process image name used for terminate/liveness checks.
	Image string `mapstructure:"image"`
}

// DebugConfig addresses the remote-debugging endpoint.
type DebugConfig struct {
	Host string `mapstructure:"host"`
	// Port 0 means pick a free port at launch time.
	Port int `mapstructure:"port"`
}

// PollConfig holds the loop intervals.
type PollConfig struct {
	// DirectoryInterval paces the reconciliation loop's discovery polls.
	DirectoryInterval time.Duration `mapstructure:"directory_interval"`
	// MonitorInterval paces the console-drain loop.
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
}

// WaitConfig bounds readiness waits.
type WaitConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Interval time.Duration `mapstructure:"interval"`
}

// InjectConfig controls the payload injection sequence.
type InjectConfig struct {
	// Frames is how many animation frames the page must render before
	// payloads are evaluated. This is a timing contract with the page.
	Frames int `mapstructure:"frames"`
	// PageSuffix marks injectable pages: injection applies only to sessions
	// whose location.href ends with this suffix.
	PageSuffix string `mapstructure:"page_suffix"`
	// Dir is the payload directory; Library and Main are file names inside
	// it, evaluated in that order.
	Dir     string `mapstructure:"dir"`
	Library string `mapstructure:"library"`
	Main    string `mapstructure:"main"`
}

// HTTPConfig bounds discovery requests.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// WSConfig bounds a single evaluate round trip.
type WSConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds log sink settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		App: AppConfig{
			Scheme: "ridi",
			Bundle: "/Applications/Ridibooks.app",
			Image:  "Ridibooks.exe",
		},
		Debug: DebugConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
		Poll: PollConfig{
			DirectoryInterval: 10 * time.Millisecond,
			MonitorInterval:   time.Second,
		},
		Wait: WaitConfig{
			Attempts: 200,
			Interval: 10 * time.Millisecond,
		},
		Inject: InjectConfig{
			Frames:     60,
			PageSuffix: "Viewer",
			Dir:        "inject",
			Library:    "jszip.js",
			Main:       "inject.js",
		},
		HTTP: HTTPConfig{Timeout: 2 * time.Second},
		WS:   WSConfig{Timeout: 5 * time.Second},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("ecw")
	v.SetConfigType("yaml")

	// Config paths, lowest precedence first
	v.AddConfigPath("/etc/ecw/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "ecw"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".ecw")
	}
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("ECW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.image", "ECW_APP_IMAGE")
	v.BindEnv("debug.host", "ECW_DEBUG_HOST")
	v.BindEnv("debug.port", "ECW_DEBUG_PORT")
	v.BindEnv("log.level", "ECW_LOG_LEVEL")
	v.BindEnv("log.file", "ECW_LOG_FILE")

	cfg := Default()
	v.SetDefault("app.scheme", cfg.App.Scheme)
	v.SetDefault("app.bundle", cfg.App.Bundle)
	v.SetDefault("app.image", cfg.App.Image)
	v.SetDefault("debug.host", cfg.Debug.Host)
	v.SetDefault("debug.port", cfg.Debug.Port)
	v.SetDefault("poll.directory_interval", cfg.Poll.DirectoryInterval)
	v.SetDefault("poll.monitor_interval", cfg.Poll.MonitorInterval)
	v.SetDefault("wait.attempts", cfg.Wait.Attempts)
	v.SetDefault("wait.interval", cfg.Wait.Interval)
	v.SetDefault("inject.frames", cfg.Inject.Frames)
	v.SetDefault("inject.page_suffix", cfg.Inject.PageSuffix)
	v.SetDefault("inject.dir", cfg.Inject.Dir)
	v.SetDefault("inject.library", cfg.Inject.Library)
	v.SetDefault("inject.main", cfg.Inject.Main)
	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("ws.timeout", cfg.WS.Timeout)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)

	// Missing config file is fine; defaults apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
