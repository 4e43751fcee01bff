// Package config provides configuration loading and validation for lumison.
//
// It uses Viper to load configuration from YAML files, .env files (via
// godotenv), environment variables and command-line flags (via pflag), in
// increasing order of precedence.
//
// # Usage
//
//	var cfg launcher.Config
//	err := config.LoadConfig("lumison", &cfg, config.WithConfigFile(path))
//
// Every key of the target struct binds to an environment variable named by
// upper-casing it and replacing dots with underscores, so WINDOW_MIN_WIDTH=640
// sets window.min_width. A .env file only fills variables that are not
// already set.
package config
