package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrTargetNotFound marks a launch target that is neither a file nor on PATH.
var ErrTargetNotFound = errors.New("launch target not found")

// Resolve checks that argv names something launchable: argv[0] must be a file
// or on PATH, and every script-like argument (non-flag with a file extension)
// must exist. Relative paths are resolved against dir.
func Resolve(argv []string, dir string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("%w: empty command", ErrTargetNotFound)
	}

	path, err := resolveBinary(argv[0], dir)
	if err != nil {
		return "", err
	}
	for _, arg := range argv[1:] {
		if strings.HasPrefix(arg, "-") || filepath.Ext(arg) == "" {
			continue
		}
		if _, err := statFile(arg, dir); err != nil {
			return "", err
		}
	}
	return path, nil
}

func resolveBinary(bin string, dir string) (string, error) {
	if filepath.IsAbs(bin) || filepath.Base(bin) != bin {
		return statFile(bin, dir)
	}

	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s not in PATH", ErrTargetNotFound, bin)
	}
	return path, nil
}

func statFile(name string, dir string) (string, error) {
	candidate := name
	if !filepath.IsAbs(candidate) && dir != "" {
		candidate = filepath.Join(dir, candidate)
	}
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrTargetNotFound, candidate)
	}
	return candidate, nil
}
