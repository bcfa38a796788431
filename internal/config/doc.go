// Package config loads, normalizes, and validates sftpsync configuration.
//
// Settings come from four layers, later ones winning: repository defaults,
// an optional TOML file, the process environment (optionally seeded from a
// .env file), and command-line flags applied by the CLI. Paths are expanded
// (including tilde shortcuts) during normalization, and Validate reports
// every missing required value in a single error so a run fails before it
// touches the network.
package config
