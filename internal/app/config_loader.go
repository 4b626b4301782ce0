package app

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/quickdl-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.quickdl")
		v.AddConfigPath("/etc/quickdl")
	}

	// QUICKDL_SERVICE_BASE_URL overrides service.base_url and so on
	v.SetEnvPrefix("QUICKDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, config)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// configValues flattens the configuration into viper keys
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":               config.Server.Host,
		"server.port":               config.Server.Port,
		"server.secure_cookies":     config.Server.SecureCookies,
		"server.session_idle":       config.Server.SessionIdle.String(),
		"server.sweep_interval":     config.Server.SweepInterval.String(),
		"server.allowed_origins":    config.Server.AllowedOrigins,
		"service.base_url":          config.Service.BaseURL,
		"service.timeout":           config.Service.Timeout.String(),
		"service.prefixes":          config.Service.Prefixes,
		"identity.cookie_name":      config.Identity.CookieName,
		"identity.lifetime":         config.Identity.Lifetime.String(),
		"identity.database_path":    config.Identity.DatabasePath,
		"download.output_dir":       config.Download.OutputDir,
		"download.audio_quality":    config.Download.AudioQuality,
		"download.keep_history":     config.Download.KeepHistory,
		"ratings.average_scale":     config.Ratings.AverageScale,
		"notification.auto_dismiss": config.Notification.AutoDismiss.String(),
		"notification.desktop":      config.Notification.Desktop,
		"notification.method":       config.Notification.Method,
		"logging.level":             config.Logging.Level,
		"logging.format":            config.Logging.Format,
		"logging.output_path":       config.Logging.OutputPath,
		"logging.logs_dir":          config.Logging.LogsDir,
	}
}

// bindDefaults registers every key so AutomaticEnv can see it during Unmarshal
func bindDefaults(v *viper.Viper, config *domain.Config) {
	for key, value := range configValues(config) {
		v.SetDefault(key, value)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Identity.DatabasePath = expandPath(config.Identity.DatabasePath)
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.SessionIdle <= 0 || config.Server.SweepInterval <= 0 {
		return fmt.Errorf("session idle timeout and sweep interval must be positive")
	}

	base, err := url.Parse(config.Service.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("invalid service base url: %q", config.Service.BaseURL)
	}

	for platform := range config.Service.Prefixes {
		if !domain.ValidatePlatform(domain.Platform(platform)) {
			return fmt.Errorf("prefix configured for unknown platform: %s", platform)
		}
	}

	if config.Identity.CookieName == "" {
		return fmt.Errorf("identity cookie name not configured")
	}

	if config.Identity.Lifetime <= 0 {
		return fmt.Errorf("identity lifetime must be positive")
	}

	if config.Ratings.AverageScale < 1 {
		return fmt.Errorf("average rating scale must be at least 1")
	}

	if config.Notification.AutoDismiss <= 0 {
		return fmt.Errorf("notification auto dismiss must be positive")
	}

	if !domain.IsAllowedQuality(config.Download.AudioQuality) {
		return fmt.Errorf("unsupported audio quality: %s", config.Download.AudioQuality)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
