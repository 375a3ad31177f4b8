// Package naming validates user supplied project names before they are used
// to derive paths and command lines.
package naming

import (
	"regexp"
	"strings"

	"github.com/slok/carps/internal/model"
)

var projectNameRegexp = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validate checks that name is non-empty and only contains alphanumeric characters
// and underscores. Names are interpolated in shell command lines, so path separators,
// spaces and shell metacharacters are never accepted.
func Validate(name string) error {
	if strings.TrimSpace(name) == "" || !projectNameRegexp.MatchString(name) {
		return &model.InvalidNameError{Name: name}
	}

	return nil
}

// Parse validates name and returns it as a project name.
func Parse(name string) (model.ProjectName, error) {
	if err := Validate(name); err != nil {
		return "", err
	}

	return model.ProjectName(name), nil
}
