package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotenv loads .env files that exist, in order, without overriding
// variables already present in the environment.
func LoadDotenv(paths ...string) ([]string, error) {
	loaded := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("stat dotenv %q: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load dotenv %q: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// DotenvPaths lists the .env candidates for a config path: the working
// directory first, then the config directory.
func DotenvPaths(configPath string) []string {
	paths := []string{".env"}
	if configPath != "" {
		paths = append(paths, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	return paths
}
