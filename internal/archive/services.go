package archive

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/blob/filesystem"
)

// RelocationMode selects how service registry resources are treated after
// assembly. The zero value disables relocation.
type RelocationMode string

const RelocationCombine RelocationMode = "combine"

const backupSuffix = ".backup"

var (
	ErrArchiveCreation        = errors.New("unable to create archive")
	ErrUnsupportedRelocation  = errors.New("unsupported relocation mode")
	ErrIncompleteMergeRequest = errors.New("incomplete merge request")
)

func ParseRelocationMode(s string) (RelocationMode, error) {
	switch RelocationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case RelocationCombine:
		return RelocationCombine, nil
	default:
		return "", fmt.Errorf("%w %q, supported: %s", ErrUnsupportedRelocation, s, RelocationCombine)
	}
}

// MergeRequest describes a service registry merge into Target. Contributing
// archives are visited as Direct, Transitive, then Primary.
type MergeRequest struct {
	Primary    string
	Direct     []string
	Transitive []string

	Target string
	// WorkDir receives the backups of Primary and Target.
	WorkDir string
}

// MergeServiceRegistries replaces every service registry resource in the
// target archive with the first-seen-order union of the same resource across
// all contributing archives.
//
// Primary and Target are backed up into WorkDir before anything is changed.
// The backups are removed after a successful merge and kept otherwise, the
// returned error then wraps ErrArchiveCreation.
func MergeServiceRegistries(ctx context.Context, req MergeRequest) (err error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "archive"))

	if req.Primary == "" || req.Target == "" || req.WorkDir == "" {
		return fmt.Errorf("%w: primary, target and work directory are required", ErrIncompleteMergeRequest)
	}

	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "service registry merge failed, backups are kept for manual recovery",
				"workDir", req.WorkDir, "error", err)
			err = fmt.Errorf("%w from %s: %w", ErrArchiveCreation, req.Primary, err)
		}
	}()

	if err := os.MkdirAll(req.WorkDir, 0o755); err != nil {
		return fmt.Errorf("unable to create work directory %s: %w", req.WorkDir, err)
	}
	primaryBackup, err := backup(req.Primary, req.WorkDir)
	if err != nil {
		return err
	}
	targetBackup, err := backup(req.Target, req.WorkDir)
	if err != nil {
		return err
	}

	contributors := make([]string, 0, len(req.Direct)+len(req.Transitive)+1)
	contributors = append(contributors, req.Direct...)
	contributors = append(contributors, req.Transitive...)
	contributors = append(contributors, primaryBackup)

	archives, err := openAll(ctx, logger, append([]string{targetBackup}, contributors...))
	if err != nil {
		return err
	}
	target, sources := archives[0], archives[1:]

	names, merged := CombineServices(sources...)
	for _, name := range names {
		logger.DebugContext(ctx, "relocating service registry", "entry", name, "content", string(merged[name]))
		target.Delete(name)
		if err := target.Add(name, merged[name]); err != nil {
			return err
		}
	}

	if err := os.Remove(req.Target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to remove %s: %w", req.Target, err)
	}
	dig, err := target.Export(req.Target)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "merged service registries", "path", req.Target, "services", len(names), "digest", dig.String())

	for _, p := range []string{targetBackup, primaryBackup} {
		if rerr := os.Remove(p); rerr != nil {
			logger.WarnContext(ctx, "unable to delete backup file", "path", p, "error", rerr)
		}
	}
	return nil
}

// CombineServices unions the lines of every service registry resource across
// archives. Blank lines are dropped, every other line is kept once in the
// order it was first seen. names lists the resources in first-seen order.
func CombineServices(archives ...*Archive) (names []string, merged map[string][]byte) {
	type lineSet struct {
		lines []string
		seen  map[string]struct{}
	}
	sets := map[string]*lineSet{}

	for _, a := range archives {
		for _, e := range a.Entries() {
			if !IsServiceRegistry(e.Name) {
				continue
			}
			set, ok := sets[e.Name]
			if !ok {
				set = &lineSet{seen: map[string]struct{}{}}
				sets[e.Name] = set
				names = append(names, e.Name)
			}
			scanner := bufio.NewScanner(bytes.NewReader(e.Data))
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if _, dup := set.seen[line]; dup {
					continue
				}
				set.seen[line] = struct{}{}
				set.lines = append(set.lines, line)
			}
		}
	}

	merged = make(map[string][]byte, len(sets))
	for name, set := range sets {
		var buf bytes.Buffer
		for _, line := range set.lines {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		merged[name] = buf.Bytes()
	}
	return names, merged
}

// IsServiceRegistry reports whether name is a service registry resource, a
// file directly below ServicesDir.
func IsServiceRegistry(name string) bool {
	rest, ok := strings.CutPrefix(name, ServicesDir)
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// backup copies src into dir and returns the path of the copy.
func backup(src, dir string) (string, error) {
	b, err := filesystem.GetBlobFromOSPath(src)
	if err != nil {
		return "", fmt.Errorf("unable to open %s for backup: %w", src, err)
	}
	dst := filepath.Join(dir, filepath.Base(src)+backupSuffix)
	// the copy appends, a stale backup has to go first
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("unable to replace stale backup %s: %w", dst, err)
	}
	if err := filesystem.CopyBlobToOSPath(b, dst); err != nil {
		return "", fmt.Errorf("unable to back up %s to %s: %w", src, dst, err)
	}
	return dst, nil
}
