package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/deltasim/internal/domain/config"
)

// flagKeys maps flag names that do not follow the plain dash-to-underscore rule
var flagKeys = map[string]string{
	"anvil-path":       "fork.anvil_path",
	"base-port":        "fork.base_port",
	"refresh-interval": "fork.refresh_interval",
	"startup-timeout":  "fork.startup_timeout",
	"fork-log-dir":     "fork.log_dir",
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	cfg := &config.RuntimeConfig{
		Host:      v.GetString("host"),
		Port:      v.GetInt("port"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),
		Fork: config.ForkConfig{
			AnvilPath:       v.GetString("fork.anvil_path"),
			BindHost:        v.GetString("fork.bind_host"),
			BasePort:        v.GetInt("fork.base_port"),
			LogDir:          v.GetString("fork.log_dir"),
			StartupTimeout:  v.GetDuration("fork.startup_timeout"),
			PollInterval:    v.GetDuration("fork.poll_interval"),
			RefreshInterval: v.GetDuration("fork.refresh_interval"),
			TerminateGrace:  v.GetDuration("fork.terminate_grace"),
			ShutdownTimeout: v.GetDuration("fork.shutdown_timeout"),
		},
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Fork.BasePort <= 0 || cfg.Fork.BasePort > 65535 {
		return nil, fmt.Errorf("invalid fork base port: %d", cfg.Fork.BasePort)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be text or json", cfg.LogFormat)
	}

	if path := v.GetString("networks_file"); path != "" {
		networks, err := LoadNetworksFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load networks: %w", err)
		}
		cfg.Networks = networks
		cfg.NetworksSource = path
	} else {
		cfg.Networks = DefaultNetworks()
	}

	return cfg, nil
}

// SetupViper creates and configures a viper instance. Values come from,
// in increasing priority: defaults, deltasim.toml in workDir, the
// environment (DELTASIM_ prefix, .env files included) and cmd's flags.
func SetupViper(workDir string, cmd *cobra.Command) *viper.Viper {
	LoadEnvFiles(workDir)

	v := viper.New()

	v.SetConfigName("deltasim")
	v.SetConfigType("toml")
	v.AddConfigPath(workDir)

	v.SetEnvPrefix("DELTASIM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 9000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("networks_file", "")
	v.SetDefault("fork.anvil_path", "anvil")
	v.SetDefault("fork.bind_host", "127.0.0.1")
	v.SetDefault("fork.base_port", 9545)
	v.SetDefault("fork.log_dir", "")
	v.SetDefault("fork.startup_timeout", "30s")
	v.SetDefault("fork.poll_interval", "100ms")
	v.SetDefault("fork.refresh_interval", "60s")
	v.SetDefault("fork.terminate_grace", "3s")
	v.SetDefault("fork.shutdown_timeout", "5s")

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(flagKey(f.Name), f); err != nil {
			panic(err)
		}
	})

	return v
}

func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}
