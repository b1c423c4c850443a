package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	DefaultManifestVersion = "1.0"

	attrManifestVersion = "Manifest-Version"
	attrMainClass       = "Main-Class"
	attrMainVerticle    = "Main-Verticle"

	maxManifestLine = 72
)

// Manifest holds the main section of a jar manifest.
type Manifest struct {
	Version      string
	MainClass    string
	MainVerticle string
	// Extra holds any further main attributes.
	Extra map[string]string
}

// Bytes encodes the manifest in the jar manifest format.
func (m Manifest) Bytes() []byte {
	var buf bytes.Buffer
	version := m.Version
	if version == "" {
		version = DefaultManifestVersion
	}
	writeAttribute(&buf, attrManifestVersion, version)
	if m.MainClass != "" {
		writeAttribute(&buf, attrMainClass, m.MainClass)
	}
	if m.MainVerticle != "" {
		writeAttribute(&buf, attrMainVerticle, m.MainVerticle)
	}
	for _, k := range slices.Sorted(maps.Keys(m.Extra)) {
		writeAttribute(&buf, k, m.Extra[k])
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// writeAttribute writes "key: value", wrapping at 72 bytes with continuation
// lines that start with a single space.
func writeAttribute(buf *bytes.Buffer, key, value string) {
	line := key + ": " + value
	limit := maxManifestLine
	for len(line) > limit {
		buf.WriteString(line[:limit])
		buf.WriteString("\r\n ")
		line = line[limit:]
		limit = maxManifestLine - 1
	}
	buf.WriteString(line)
	buf.WriteString("\r\n")
}

// ParseManifest reads the main section of a jar manifest.
func ParseManifest(data []byte) (Manifest, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, " ") {
			if len(lines) == 0 {
				return Manifest{}, fmt.Errorf("invalid manifest: continuation line without attribute")
			}
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return Manifest{}, fmt.Errorf("unable to read manifest: %w", err)
	}

	var m Manifest
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return Manifest{}, fmt.Errorf("invalid manifest attribute %q", line)
		}
		switch key {
		case attrManifestVersion:
			m.Version = value
		case attrMainClass:
			m.MainClass = value
		case attrMainVerticle:
			m.MainVerticle = value
		default:
			if m.Extra == nil {
				m.Extra = map[string]string{}
			}
			m.Extra[key] = value
		}
	}
	return m, nil
}

// SetManifest replaces the manifest entry.
func (a *Archive) SetManifest(m Manifest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.put(&Entry{Name: ManifestPath, Data: m.Bytes()})
}

// Manifest parses the manifest entry.
func (a *Archive) Manifest() (Manifest, error) {
	data, ok := a.Get(ManifestPath)
	if !ok {
		return Manifest{}, fmt.Errorf("archive has no %s", ManifestPath)
	}
	return ParseManifest(data)
}
