package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultCommandPathsEnv is the environment variable scanned for additional
// command plugin paths, delimited by the OS path list separator.
const DefaultCommandPathsEnv = "TP_DCC_COMMAND_PATHS"

var (
	configData Config
	v          *viper.Viper
)

// Config holds all configuration settings.
type Config struct {
	// Host configuration
	Host struct {
		Name string
	}
	// Command framework configuration
	Commands struct {
		Paths     []string
		PathsEnv  string
		UndoLimit int
	}
	// Server configuration
	Server struct {
		Host string
		Port int
	}
	// Logging configuration
	Log struct {
		Level  string
		Format string
	}
}

// Initialize sets up the configuration system.
func Initialize() error {
	v = viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.go_dcc")
	v.AddConfigPath("/etc/go_dcc/")

	setDefaults()

	v.SetEnvPrefix("GODCC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := ensureConfig(); err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&configData); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return nil
}

// setDefaults sets default values for all configuration options.
func setDefaults() {
	v.SetDefault("host.name", "standalone")

	v.SetDefault("commands.paths", []string{})
	v.SetDefault("commands.paths_env", DefaultCommandPathsEnv)
	v.SetDefault("commands.undo_limit", 100)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 1712)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")
}

// ensureConfig creates a default config file if none exists.
func ensureConfig() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".go_dcc")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return err
		}
	}

	configFile := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		defaultConfig := `# go_dcc configuration file
host:
  name: standalone

commands:
  paths: []
  paths_env: ` + DefaultCommandPathsEnv + `
  undo_limit: 100

server:
  host: localhost
  port: 1712

log:
  level: info
  format: human
`
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o644); err != nil {
			return err
		}
	}

	return nil
}

// BindFlags binds command line flags over the file and environment values
// and refreshes the decoded snapshot so overrides are visible through Get.
func BindFlags(flags map[string]*pflag.Flag) error {
	for key, flag := range flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %q: %w", key, err)
		}
	}

	return v.Unmarshal(&configData)
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
