// Package config defines the respkv-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation of addresses, limits and shard counts
//
// Values are loaded through internal/infra/confloader from a YAML file,
// RESPKV_ environment variables and command-line flags.
package config
