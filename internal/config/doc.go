// Package config loads and merges the sync server configuration from
// environment variables, command-line flags, and an optional JSON file.
//
// Sources are merged through a builder: environment variables take
// precedence, then flags, then the JSON file. Unset sync tunables fall
// back to package defaults before validation.
package config
