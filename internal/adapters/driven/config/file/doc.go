// Package file loads the sercha-sync configuration file.
//
// The file is TOML (.toml) or YAML (.yaml, .yml). String fields may contain
// $VAR or ${VAR} references, expanded from the environment after an optional
// .env file next to the configuration has been loaded. Relative directories
// are resolved against the directory holding the configuration file.
package file
