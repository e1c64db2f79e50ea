// Package repl provides the interactive mode of respkv-cli.
//
// Each input line is split into arguments with redis-cli quoting rules
// ("double quotes" with escapes, 'single quotes' verbatim) and handed to
// an Executor. History persists across sessions.
package repl
