// Package mark provides embedded assets for the Mark daemon.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. The daemon writes it to the data directory on first
// run so users start from a documented example.
package mark

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time and generated by cmd/genconfig.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
