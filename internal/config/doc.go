// Package config loads daemon settings from defaults, an optional YAML file
// and environment variables, in that order of precedence (last wins).
package config
