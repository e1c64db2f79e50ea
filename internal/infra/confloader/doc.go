// Package confloader loads layered configuration with koanf and watches
// the config file with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Command-line flags, passed in as a map
//  2. Environment variables with the RESPKV_ prefix
//  3. The YAML configuration file
//  4. Values already present in the target struct
//
// Environment keys separate sections with a double underscore so that
// key names may keep single underscores:
//
//	RESPKV_SERVER__REDIS__MAX_CONNECTIONS=100  ->  server.redis.max_connections
package confloader
