// Package artifact defines the identity of a resolved dependency.
package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// Artifact is one resolved dependency of the analyzed project. Identity is the
// (Group, Name, Version) triple; ArchivePath points at the jar supplying its classes.
type Artifact struct {
	Group       string `json:"group" yaml:"group"`
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	ArchivePath string `json:"archive" yaml:"archive"`
}

// Coordinate returns the canonical "group:name:version" form used as the map key
// throughout the analysis and in reports.
func (a Artifact) Coordinate() string {
	return fmt.Sprintf("%s:%s:%s", a.Group, a.Name, a.Version)
}

func (a Artifact) String() string {
	return a.Coordinate()
}

// ErrBadCoordinate is returned by ParseCoordinate for malformed input.
var ErrBadCoordinate = errors.New("coordinate must be group:name:version")

// ParseCoordinate splits a "group:name:version" string into an Artifact without an
// archive path.
func ParseCoordinate(s string) (Artifact, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Artifact{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	for _, p := range parts {
		if p == "" {
			return Artifact{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
		}
	}
	return Artifact{Group: parts[0], Name: parts[1], Version: parts[2]}, nil
}
