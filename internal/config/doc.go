// Package config loads the crypta configuration file.
//
// It handles:
//   - Locating the file (CRYPTA_CONFIG or ~/.config/crypta/config.yaml)
//   - ${VAR} and ~ expansion in path values
//   - Defaults for every field and validation of the result
//
// A missing default file is not an error; the defaults are used.
package config
