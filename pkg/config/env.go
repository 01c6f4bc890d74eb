package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// LoadEnv loads environment variable overrides from the .env file at path
// into the process environment, without overwriting variables already set.
// It is a no-op, not an error, if path does not exist: the .env file is
// optional. FILEMONITOR_DEBUG is read once at process start, before LoadEnv
// runs, so setting it in the .env file does not change the log level.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(err, "unable to load environment overrides")
	}
	return nil
}
