package conventions

import (
	"path/filepath"

	"github.com/slok/carps/internal/model"
)

const (
	// DefaultDataDir is the default carps data directory name (relative to home).
	DefaultDataDir = ".carps"
	// DBFile is the filename of the run history database.
	DBFile = "carps.db"
	// ConfigFile is the filename of the optional configuration file.
	ConfigFile = "config.yaml"

	// SolutionExt is the extension of the generated solution file.
	SolutionExt = ".sln"
	// ProjectExt is the extension of the generated project file.
	ProjectExt = ".csproj"

	// InstructionFileSuffix is appended to the project name to get the instruction file name.
	InstructionFileSuffix = " - Copy into Terminal to create.txt"
)

// ProjectPaths returns the paths of a project. The result only depends on the
// received name and working directory.
func ProjectPaths(name model.ProjectName, cwd string) model.ProjectPaths {
	n := name.String()
	outer := filepath.Join(cwd, n)
	inner := filepath.Join(outer, n)
	projectDir := filepath.Join(inner, n)

	return model.ProjectPaths{
		OuterDir:     outer,
		InnerDir:     inner,
		SolutionFile: filepath.Join(inner, n+SolutionExt),
		ProjectDir:   projectDir,
		ProjectFile:  filepath.Join(projectDir, n+ProjectExt),
	}
}

// InstructionFilePath returns the path of the instruction file for a project.
func InstructionFilePath(name model.ProjectName, dir string) string {
	return filepath.Join(dir, name.String()+InstructionFileSuffix)
}

// DBPath returns the run history database path inside a data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// ConfigPath returns the configuration file path inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}
