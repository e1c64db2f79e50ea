// Package main provides the entry point for respkv-cli.
//
// respkv-cli sends single commands (respkv-cli set k v), runs a load test
// (respkv-cli bench) or, without arguments, starts an interactive shell.
package main
