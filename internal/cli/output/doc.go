// Package output formats replies for respkv-cli.
//
// Text output mirrors redis-cli: quoted bulk strings, "(integer) n",
// "(nil)" and numbered aggregates. JSON output maps each frame to its
// natural JSON value; see JSONValue.
package output
