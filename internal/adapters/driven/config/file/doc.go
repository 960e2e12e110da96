// Package file provides TOML-backed configuration: the key-value config
// store and the source database definitions, with optional watch-and-reload
// of the definitions file.
package file
