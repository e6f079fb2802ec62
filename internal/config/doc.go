// Package config loads the PersonaChain runtime configuration from a JSON
// file and fills in defaults for omitted sections. Paths inside the file are
// resolved relative to the file's directory so a config bundle can be moved
// as a unit.
package config
