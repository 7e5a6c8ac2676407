// Package config resolves the hub's listen address from CLI args, the
// environment, or a default, in that priority order (spec.md's ambient
// configuration concern).
package config

import "os"

// DefaultAddr is used when neither a CLI argument nor the environment
// variable supplies one.
const DefaultAddr = ":9000"

// EnvAddr is the environment variable checked when no CLI argument is
// given.
const EnvAddr = "SIGNALHUB_ADDR"

// Config holds the hub's runtime configuration.
type Config struct {
	Addr string // TCP address the signaling WebSocket listens on
}

// Load resolves Config from args (main passes the -addr flag value, if
// set): args[0], if
// present and non-empty, wins; otherwise the SIGNALHUB_ADDR environment
// variable; otherwise DefaultAddr.
func Load(args []string) (Config, error) {
	if len(args) > 0 && args[0] != "" {
		return Config{Addr: args[0]}, nil
	}
	if addr := os.Getenv(EnvAddr); addr != "" {
		return Config{Addr: addr}, nil
	}
	return Config{Addr: DefaultAddr}, nil
}
