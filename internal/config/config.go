// Package config loads QCL's ambient runtime configuration (optimizer
// default, simulator limits, server bind address) from environment
// variables prefixed QCL_, with viper doing the env-binding and defaults.
package config

import "github.com/spf13/viper"

// Config is the resolved set of ambient knobs the CLI/server collaborators
// read; the compiler library itself remains pure and takes none of these
// as implicit global state (see SPEC_FULL.md's ambient-stack section).
type Config struct {
	Optimize    bool   `mapstructure:"optimize"`
	SimBackend  string `mapstructure:"sim_backend"`
	SimMaxSteps int    `mapstructure:"sim_max_steps"`
	SimSeed     int64  `mapstructure:"sim_seed"`
	SimShots    int    `mapstructure:"sim_shots"`
	Workers     int    `mapstructure:"workers"`
	ServerAddr  string `mapstructure:"server_addr"`
	LogDebug    bool   `mapstructure:"log_debug"`
}

// Load reads QCL_* environment variables over these defaults. Missing
// variables silently keep the default; malformed ones are a viper error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QCL")
	v.AutomaticEnv()

	v.SetDefault("optimize", true)
	v.SetDefault("sim_backend", "qsim")
	v.SetDefault("sim_max_steps", 1_000_000)
	v.SetDefault("sim_seed", 0)
	v.SetDefault("sim_shots", 1)
	v.SetDefault("workers", 1)
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("log_debug", false)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
