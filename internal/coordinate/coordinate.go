// Package coordinate models maven style dependency coordinates and the scopes
// they are declared with.
package coordinate

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// DefaultType is the artifact type assumed when a coordinate does not name one.
const DefaultType = "jar"

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate identifies a dependency. The full tuple is the identity, so a
// Coordinate can be used as a map key.
type Coordinate struct {
	Group      string `json:"group"`
	Artifact   string `json:"artifact"`
	Version    string `json:"version"`
	Type       string `json:"type,omitempty"`
	Classifier string `json:"classifier,omitempty"`
}

// Parse reads a coordinate of the form group:artifact:version[:type[:classifier]].
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 || len(parts) > 5 {
		return Coordinate{}, fmt.Errorf("%w %q: expected group:artifact:version[:type[:classifier]]", ErrInvalidCoordinate, s)
	}
	for i, p := range parts {
		if p == "" {
			return Coordinate{}, fmt.Errorf("%w %q: segment %d is empty", ErrInvalidCoordinate, s, i+1)
		}
	}

	c := Coordinate{
		Group:    parts[0],
		Artifact: parts[1],
		Version:  parts[2],
		Type:     DefaultType,
	}
	if len(parts) > 3 {
		c.Type = parts[3]
	}
	if len(parts) > 4 {
		c.Classifier = parts[4]
	}
	return c, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and package level defaults.
func MustParse(s string) Coordinate {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Normalize fills in the default type.
func (c Coordinate) Normalize() Coordinate {
	if c.Type == "" {
		c.Type = DefaultType
	}
	return c
}

func (c Coordinate) String() string {
	c = c.Normalize()
	b := strings.Builder{}
	b.WriteString(c.Group)
	b.WriteByte(':')
	b.WriteString(c.Artifact)
	b.WriteByte(':')
	b.WriteString(c.Version)
	if c.Type != DefaultType || c.Classifier != "" {
		b.WriteByte(':')
		b.WriteString(c.Type)
	}
	if c.Classifier != "" {
		b.WriteByte(':')
		b.WriteString(c.Classifier)
	}
	return b.String()
}

// FileName is the name of the artifact file inside its version directory.
func (c Coordinate) FileName() string {
	c = c.Normalize()
	name := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + c.Type
}

// RepositoryPath is the slash separated location of the artifact in a maven
// repository layout.
func (c Coordinate) RepositoryPath() string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, c.FileName())
}
