package coordinate

import (
	"fmt"
	"strings"
)

// Scope is the maven dependency scope.
type Scope string

const (
	ScopeCompile  Scope = "compile"
	ScopeRuntime  Scope = "runtime"
	ScopeProvided Scope = "provided"
	ScopeTest     Scope = "test"
	ScopeSystem   Scope = "system"
	ScopeImport   Scope = "import"
)

// Scopes lists every known scope.
var Scopes = []Scope{ScopeCompile, ScopeRuntime, ScopeProvided, ScopeTest, ScopeSystem, ScopeImport}

// ParseScope accepts any known scope, case insensitive. The empty string is
// the compile scope.
func ParseScope(s string) (Scope, error) {
	if s == "" {
		return ScopeCompile, nil
	}
	for _, scope := range Scopes {
		if strings.EqualFold(s, string(scope)) {
			return scope, nil
		}
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Packaged reports whether dependencies of this scope are part of the
// packaged archive and the launch classpath.
func (s Scope) Packaged() bool {
	switch s {
	case "", ScopeCompile, ScopeRuntime:
		return true
	default:
		return false
	}
}

// Dependency is a declared dependency together with the dependencies it
// pulls in transitively.
type Dependency struct {
	Coordinate Coordinate
	Scope      Scope
	Optional   bool
	Transitive []Dependency
}

func (d Dependency) String() string {
	scope := d.Scope
	if scope == "" {
		scope = ScopeCompile
	}
	return d.Coordinate.String() + " (" + string(scope) + ")"
}
