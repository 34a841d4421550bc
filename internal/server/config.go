package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/netmeter.db")

	// Plugin defaults
	v.SetDefault("plugins.carrier.enabled", true)
	v.SetDefault("plugins.carrier.merge_groups", []string{})
	v.SetDefault("plugins.policy.enabled", true)
	v.SetDefault("plugins.classify.enabled", true)
	v.SetDefault("plugins.feed.enabled", true)
	v.SetDefault("plugins.feed.write_timeout", "10s")

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_ttl", "24h")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("netmeter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/netmeter")
	}

	// Environment variable support: NM_SERVER_PORT=9090
	v.SetEnvPrefix("NM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
