package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ocm.software/open-component-model/vxpack/internal/coordinate"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Repository locates the file backing a coordinate.
type Repository interface {
	Locate(ctx context.Context, c coordinate.Coordinate) (string, error)
}

// LocalRepository is a repository in the maven directory layout on the local
// filesystem, usually ~/.m2/repository.
type LocalRepository struct {
	Root string
}

var _ Repository = (*LocalRepository)(nil)

func NewLocalRepository(root string) *LocalRepository {
	return &LocalRepository{Root: root}
}

// DefaultLocalRepositoryRoot returns $M2_REPO when set and ~/.m2/repository otherwise.
func DefaultLocalRepositoryRoot() (string, error) {
	if root := os.Getenv("M2_REPO"); root != "" {
		return root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine home directory for local repository: %w", err)
	}
	return filepath.Join(home, ".m2", "repository"), nil
}

func (l *LocalRepository) Locate(ctx context.Context, c coordinate.Coordinate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := filepath.Join(l.Root, filepath.FromSlash(c.RepositoryPath()))
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not present at %s", ErrArtifactNotFound, c, p)
		}
		return "", fmt.Errorf("unable to stat %s: %w", p, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s resolves to directory %s", ErrArtifactNotFound, c, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("unable to resolve absolute path of %s: %w", p, err)
	}
	return abs, nil
}
