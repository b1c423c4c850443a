package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	slogcontext "github.com/veqryn/slog-context"
	"sigs.k8s.io/yaml"
)

const (
	ConfDir      = "src/main/conf"
	JSONConfName = "application.json"
)

var confPattern = glob.MustCompile("*.{json,yml,yaml}")

// DiscoverConfig picks the application configuration in {BaseDir}/src/main/conf.
// The first matching file in lexical order wins. YAML files are converted to
// {BuildDir}/conf/application.json and that path is returned instead. An
// empty path means there is no configuration.
func (p *Project) DiscoverConfig(ctx context.Context) (string, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "launch"))

	dir := p.Path(ConfDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("unable to scan configuration directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && confPattern.Match(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	slices.Sort(names)
	src := filepath.Join(dir, names[0])

	if strings.HasSuffix(src, ".json") {
		logger.DebugContext(ctx, "using configuration", "path", src)
		return src, nil
	}

	dst := filepath.Join(p.BuildDir(), "conf", JSONConfName)
	if err := ConvertYAMLToJSON(src, dst); err != nil {
		return "", err
	}
	logger.DebugContext(ctx, "converted configuration", "from", src, "to", dst)
	return dst, nil
}

// ResolveConfig returns the -conf argument for a launch. An explicit path is
// used if it names an existing file. Otherwise the descriptor value is tried
// and then DiscoverConfig.
func (p *Project) ResolveConfig(ctx context.Context, explicit string) (string, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "launch"))
	for _, candidate := range []string{explicit, p.Run.Conf} {
		if candidate == "" {
			continue
		}
		path := p.Path(candidate)
		fi, err := os.Stat(path)
		if err == nil && fi.Mode().IsRegular() {
			return path, nil
		}
		if candidate == explicit {
			logger.WarnContext(ctx, "ignoring configuration that is not a regular file", "path", path)
		}
	}
	return p.DiscoverConfig(ctx)
}

// ConvertYAMLToJSON writes the YAML document at src as indented JSON to dst.
func ConvertYAMLToJSON(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read configuration %s: %w", src, err)
	}
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("unable to convert configuration %s: %w", src, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unable to convert configuration %s: %w", src, err)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to convert configuration %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("unable to create configuration directory: %w", err)
	}
	if err := os.WriteFile(dst, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("unable to write configuration %s: %w", dst, err)
	}
	return nil
}
