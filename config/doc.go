// Package config loads teamsearch settings from a YAML file and TEAMSEARCH_*
// environment variables with viper.
package config
