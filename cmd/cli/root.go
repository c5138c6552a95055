/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cli implements the chronoguard command-line surface: the serve
// composition root plus the reload and clear admin commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloud-nimbus/chronoguard/internal/config"
	"github.com/cloud-nimbus/chronoguard/internal/errors"
)

const (
	rootCmdShort = "chronoguard is a timezone-aware recurring alarm scheduler"
	rootCmdLong  = `chronoguard schedules alarms identified by (code, recipient, local time)
and fires a notification at the alarm's wall-clock instant in its
configured timezone, on a matching weekday. Recurring alarms persist
across fires; one-shot alarms are removed after the first one.`

	configFlagDesc   = "config file (default is config.yaml in $HOME, the working directory, or /etc/chronoguard)"
	metricsBindDesc  = "The address the Prometheus metrics endpoint binds to"
	healthBindDesc   = "The address the health-probe endpoint binds to"
	otelEnabledDesc  = "Enable OpenTelemetry tracing"
	otelExporterDesc = "OpenTelemetry exporter type (otlp, stdout)"
	otelEndpointDesc = "OpenTelemetry OTLP endpoint"
	otelServiceDesc  = "OpenTelemetry service name"
	logLevelFlagDesc = "Log level (debug, info, warn, error)"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCmd creates and configures the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chronoguard",
		Short: rootCmdShort,
		Long:  rootCmdLong,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadWithViper(viper.GetViper())
			if err != nil {
				return fmt.Errorf("%s: %w", errors.ErrLoadConfig, err)
			}
			return nil
		},
	}

	cobra.OnInitialize(initConfig)

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReloadCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// addPersistentFlags adds persistent flags to the root command.
func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", configFlagDesc)

	cmd.PersistentFlags().String("metrics-bind-address", ":8080", metricsBindDesc)
	cmd.PersistentFlags().String("health-probe-bind-address", ":8081", healthBindDesc)
	cmd.PersistentFlags().String("log-level", "info", logLevelFlagDesc)

	cmd.PersistentFlags().Bool("otel-enabled", false, otelEnabledDesc)
	cmd.PersistentFlags().String("otel-exporter", "otlp", otelExporterDesc)
	cmd.PersistentFlags().String("otel-endpoint", "localhost:4317", otelEndpointDesc)
	cmd.PersistentFlags().String("otel-service", "chronoguard", otelServiceDesc)

	bind := func(key string, flag string) {
		if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
			cobra.CheckErr(err)
		}
	}
	bind("metrics.bind_address", "metrics-bind-address")
	bind("health.probe_bind_address", "health-probe-bind-address")
	bind("log.level", "log-level")
	bind("otel.enabled", "otel-enabled")
	bind("otel.exporter", "otel-exporter")
	bind("otel.endpoint", "otel-endpoint")
	bind("otel.service", "otel-service")
}

// Execute runs the root command, exiting nonzero on error.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/chronoguard")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chronoguard")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("ALARMD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
