package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Service      ServiceConfig      `mapstructure:"service"`
	Identity     IdentityConfig     `mapstructure:"identity"`
	Download     DownloadConfig     `mapstructure:"download"`
	Ratings      RatingsConfig      `mapstructure:"ratings"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains gateway-related configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	SecureCookies bool          `mapstructure:"secure_cookies"`
	SessionIdle   time.Duration `mapstructure:"session_idle"`   // unmount modules idle this long
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // how often idle modules are checked
	// AllowedOrigins lists browser origins allowed to call the gateway; empty means same origin only
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServiceConfig locates the extraction service
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Prefixes overrides the endpoint root per platform, e.g. twitter: api/twitter
	Prefixes map[string]string `mapstructure:"prefixes"`
}

// IdentityConfig contains session identity settings
type IdentityConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	Lifetime     time.Duration `mapstructure:"lifetime"`
	DatabasePath string        `mapstructure:"database_path"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	AudioQuality string `mapstructure:"audio_quality"`
	KeepHistory  bool   `mapstructure:"keep_history"`
}

// RatingsConfig contains rating display settings
type RatingsConfig struct {
	AverageScale int `mapstructure:"average_scale"` // scale of the aggregate endpoint
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	AutoDismiss time.Duration `mapstructure:"auto_dismiss"`
	Desktop     bool          `mapstructure:"desktop"`
	Method      string        `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // category log files; empty disables them
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "localhost",
			Port:          3000,
			SecureCookies: true,
			SessionIdle:   30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Service: ServiceConfig{
			BaseURL:  "http://127.0.0.1:5000",
			Timeout:  5 * time.Minute,
			Prefixes: map[string]string{},
		},
		Identity: IdentityConfig{
			CookieName:   "PHPSESSID",
			Lifetime:     365 * 24 * time.Hour,
			DatabasePath: "$HOME/.quickdl/quickdl.db",
		},
		Download: DownloadConfig{
			OutputDir:    "$HOME/Downloads/quickdl",
			AudioQuality: "320kbps",
			KeepHistory:  true,
		},
		Ratings: RatingsConfig{
			AverageScale: 10,
		},
		Notification: NotificationConfig{
			AutoDismiss: 6 * time.Second,
			Desktop:     false,
			Method:      "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			LogsDir:    "$HOME/.quickdl/logs",
		},
	}
}

// Descriptor returns the platform descriptor with any configured prefix applied
func (c *Config) Descriptor(platform Platform) (PlatformDescriptor, bool) {
	desc, ok := Describe(platform)
	if !ok {
		return desc, false
	}
	if prefix, ok := c.Service.Prefixes[string(platform)]; ok && prefix != "" {
		desc = desc.WithPrefix(prefix)
	}
	return desc, true
}
