package model

// ProjectName is a validated project name, used to name the directories,
// solution and project files of the scaffolded project.
type ProjectName string

func (p ProjectName) String() string { return string(p) }

// ProjectPaths are the filesystem paths derived from a project name and a working directory.
type ProjectPaths struct {
	// OuterDir is `<cwd>/<name>`.
	OuterDir string
	// InnerDir is `<cwd>/<name>/<name>`, it holds the solution file.
	InnerDir string
	// SolutionFile is `<inner>/<name>.sln`.
	SolutionFile string
	// ProjectDir is `<inner>/<name>`, it holds the console application.
	ProjectDir string
	// ProjectFile is `<inner>/<name>/<name>.csproj`.
	ProjectFile string
}
