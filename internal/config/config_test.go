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

package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, int32(5), cfg.Store.MinConns)
	require.Equal(t, int32(20), cfg.Store.MaxConns)
	require.Equal(t, "localhost:6379", cfg.Bus.Addr)
	require.Equal(t, "UTC", cfg.Scheduler.DefaultTimezone)
	require.Equal(t, "simulation", cfg.Notifier.Mode)
	require.False(t, cfg.OTel.Enabled)
	require.Equal(t, "otlp", cfg.OTel.Exporter)
	require.Equal(t, ":8080", cfg.Metrics.BindAddress)
	require.Equal(t, ":8081", cfg.Health.ProbeBindAddress)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	env := map[string]string{
		"ALARMD_OTEL_ENABLED":               "true",
		"ALARMD_OTEL_EXPORTER":              "stdout",
		"ALARMD_SCHEDULER_DEFAULT_TIMEZONE": "America/New_York",
		"ALARMD_NOTIFIER_MODE":              "smtp",
		"ALARMD_METRICS_BIND_ADDRESS":       ":9090",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ALARMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	err := v.Unmarshal(&cfg)
	require.NoError(t, err)

	require.True(t, cfg.OTel.Enabled)
	require.Equal(t, "stdout", cfg.OTel.Exporter)
	require.Equal(t, "America/New_York", cfg.Scheduler.DefaultTimezone)
	require.Equal(t, "smtp", cfg.Notifier.Mode)
	require.Equal(t, ":9090", cfg.Metrics.BindAddress)
}

func TestLoadWithViper_CustomValues(t *testing.T) {
	v := viper.New()
	v.Set("notifier.mode", "smtp")
	v.Set("scheduler.default_timezone", "Europe/London")
	v.Set("store.min_conns", 2)
	v.Set("store.max_conns", 10)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	require.Equal(t, "smtp", cfg.Notifier.Mode)
	require.Equal(t, "Europe/London", cfg.Scheduler.DefaultTimezone)
}

func TestValidate_RejectsBadPoolBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.MinConns = 10
	cfg.Store.MaxConns = 5
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownNotifierMode(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Notifier.Mode = "carrier-pigeon"
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownTimezone(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Scheduler.DefaultTimezone = "Not/AZone"
	require.Error(t, cfg.Validate())
}

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
}
