// Package env handles the extra environment variables of the spawned steps.
package env

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
)

var keyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSpecs parses `KEY=VALUE` specs, a bare `KEY` takes the value from the
// current environment. Later specs override earlier ones.
func ParseSpecs(specs []string) (map[string]string, error) {
	env := make(map[string]string, len(specs))
	for _, spec := range specs {
		k, v, err := parseSpec(spec)
		if err != nil {
			return nil, err
		}
		env[k] = v
	}

	return env, nil
}

func parseSpec(spec string) (key, value string, err error) {
	if spec == "" {
		return "", "", fmt.Errorf("environment variable spec cannot be empty")
	}

	key, value, hasValue := strings.Cut(spec, "=")
	if err := validateKey(key); err != nil {
		return "", "", err
	}
	if hasValue {
		return key, value, nil
	}

	value, ok := os.LookupEnv(key)
	if !ok {
		return "", "", fmt.Errorf("environment variable %q is not set", key)
	}
	return key, value, nil
}

// ValidateKeys checks all the keys of env are valid variable names.
func ValidateKeys(env map[string]string) error {
	for k := range env {
		if err := validateKey(k); err != nil {
			return err
		}
	}
	return nil
}

func validateKey(k string) error {
	if !keyRegexp.MatchString(k) {
		return fmt.Errorf("invalid environment variable key %q", k)
	}
	return nil
}

// MergeMaps returns a new map with base values overridden by override ones.
// The result is never nil.
func MergeMaps(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	maps.Copy(merged, base)
	maps.Copy(merged, override)
	return merged
}

// List returns the env as `KEY=VALUE` entries sorted by key.
func List(env map[string]string) []string {
	l := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		l = append(l, k+"="+env[k])
	}
	return l
}
