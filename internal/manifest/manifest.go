// Package manifest loads the resolved dependency set the analysis runs against.
//
// The manifest is produced by the build tool (e.g. `mvn dependency:list` post-processing
// or a Gradle task) and lists every resolved artifact together with the path to its
// archive. Both JSON and YAML are accepted; the parser is chosen by file extension.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tkoenig/jarusage/internal/artifact"
)

// Manifest is the root document of a dependency manifest file.
type Manifest struct {
	Dependencies []artifact.Artifact `json:"dependencies" yaml:"dependencies"`
}

var (
	// ErrMissingField marks a dependency entry lacking group, name or version.
	ErrMissingField = errors.New("dependency entry missing required field")
	// ErrNoDependencies marks a manifest with an empty dependency list.
	ErrNoDependencies = errors.New("manifest declares no dependencies")
)

// Load reads and validates a manifest file. The archive path of each entry is
// resolved relative to the manifest's directory when not absolute, so manifests
// checked into a repository keep working from any cwd.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if len(m.Dependencies) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDependencies, path)
	}

	base := filepath.Dir(path)
	for i := range m.Dependencies {
		d := &m.Dependencies[i]
		if d.Group == "" || d.Name == "" || d.Version == "" {
			return nil, fmt.Errorf("%w: entry %d (%s)", ErrMissingField, i, d.Coordinate())
		}
		if d.ArchivePath != "" && !filepath.IsAbs(d.ArchivePath) {
			d.ArchivePath = filepath.Join(base, d.ArchivePath)
		}
	}

	return &m, nil
}
