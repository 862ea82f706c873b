package config

import (
	"errors"

	"github.com/joeshaw/envdecode"
)

// parseEnv overlays ECOPOINTS_* environment variables declared in the env
// struct tags of Config. Unset variables leave the current value alone.
// A malformed value panics, in line with the JSON and flag loaders.
func parseEnv(config *Config) {
	err := envdecode.Decode(config)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		panic(err)
	}
}
