package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalPath returns the override file for name, ex. config.json5 ->
// config.local.json5.
func LocalPath(name string) string {
	prefix, ext := splitExt(filepath.Base(name))
	local := fmt.Sprintf("%s.local", prefix)
	if ext != "" {
		local = fmt.Sprintf("%s.%s", local, ext)
	}
	return filepath.Join(filepath.Dir(name), local)
}

// readJson5 reads path into out, reporting whether the file existed.
func readJson5(path string, out any) (bool, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(content) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(content, out)
	if err != nil {
		return true, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads the json5 file `name` and merges <name>.local.<ext> over
// it, non-zero values of the local file win. os.ErrNotExist is returned
// only when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	foundBase, err := readJson5(name, &out)
	if err != nil {
		return out, err
	}

	var override T
	localPath := LocalPath(name)
	foundLocal, err := readJson5(localPath, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !foundBase && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadConfigOver decodes the json5 file `name` and then <name>.local.<ext>
// on top of defaults. Every key present in a file wins, including explicit
// zero values and empty lists, keys left out keep the default.
// os.ErrNotExist is returned along with defaults only when neither file
// exists.
func ReadConfigOver[T any](name string, defaults T) (T, error) {
	out := defaults
	foundBase, err := readJson5(name, &out)
	if err != nil {
		return defaults, err
	}

	localPath := LocalPath(name)
	foundLocal, err := readJson5(localPath, &out)
	if err != nil {
		return defaults, err
	}
	if foundLocal {
		slog.Info("layering config with local overrides", "local", localPath)
	}

	if !foundBase && !foundLocal {
		return defaults, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig on the first directory, from the cwd up to
// the filesystem root, that holds a config named `name`.
func ReadRecursively[T any](name string) (T, error) {
	var empty T

	current, err := os.Getwd()
	if err != nil {
		return empty, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return empty, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return empty, os.ErrNotExist
		}
		current = parent
	}
}
