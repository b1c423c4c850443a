package archive

import (
	"archive/zip"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nlepage/go-tarfs"
	"github.com/opencontainers/go-digest"
)

var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Format is the on-disk representation of an importable archive.
type Format string

const (
	FormatZip       Format = "zip"
	FormatTar       Format = "tar"
	FormatTarGzip   Format = "tar+gzip"
	FormatDirectory Format = "directory"
)

// DetectFormat inspects the content at path. Jars are reported as zip.
func DetectFormat(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("unable to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FormatDirectory, nil
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to detect media type of %s: %w", path, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/zip"):
			return FormatZip, nil
		case m.Is("application/x-tar"):
			return FormatTar, nil
		case m.Is("application/gzip"):
			return FormatTarGzip, nil
		}
	}
	return "", fmt.Errorf("%w: %s has media type %s", ErrUnsupportedFormat, path, mt.String())
}

// Open reads the zip, tar or directory at path into a new Archive.
func Open(ctx context.Context, path string) (*Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	a := New()
	switch format {
	case FormatZip:
		err = a.importZip(path)
	case FormatTar:
		err = a.importTar(path, false)
	case FormatTarGzip:
		err = a.importTar(path, true)
	case FormatDirectory:
		err = a.ImportFS(os.DirFS(path))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to import %s: %w", path, err)
	}
	return a, nil
}

func (a *Archive) importZip(path string) (err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, zr.Close())
	}()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return err
		}
		if err := a.AddEntry(Entry{Name: f.Name, Data: data, Modified: f.Modified}); err != nil {
			return err
		}
	}
	return nil
}

func readZipFile(f *zip.File) (_ []byte, err error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open entry %s: %w", f.Name, err)
	}
	defer func() {
		err = errors.Join(err, rc.Close())
	}()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("unable to read entry %s: %w", f.Name, err)
	}
	return data, nil
}

func (a *Archive) importTar(path string, gzipped bool) (err error) {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	var reader io.Reader = bufio.NewReader(file)
	if gzipped {
		var gz *gzip.Reader
		gz, err = gzip.NewReader(reader)
		if err != nil {
			return fmt.Errorf("unable to open gzip stream: %w", err)
		}
		defer func() {
			err = errors.Join(err, gz.Close())
		}()
		reader = gz
	}

	fsys, err := tarfs.New(reader)
	if err != nil {
		return fmt.Errorf("unable to read tar: %w", err)
	}
	return a.ImportFS(fsys)
}

// ImportFS adds every regular file of fsys in lexical walk order.
func (a *Archive) ImportFS(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		return a.AddEntry(Entry{Name: name, Data: data, Modified: info.ModTime()})
	})
}

// WriteZip writes the archive as zip to w. The manifest, when present, is
// written first, all other entries follow in insertion order.
func (a *Archive) WriteZip(w io.Writer) (err error) {
	entries := a.Entries()

	zw := zip.NewWriter(w)
	defer func() {
		err = errors.Join(err, zw.Close())
	}()

	write := func(e Entry) error {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: e.Modified,
		})
		if err != nil {
			return fmt.Errorf("unable to create entry %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("unable to write entry %s: %w", e.Name, err)
		}
		return nil
	}

	for _, e := range entries {
		if e.Name == ManifestPath {
			if err := write(e); err != nil {
				return err
			}
		}
	}
	for _, e := range entries {
		if e.Name == ManifestPath {
			continue
		}
		if err := write(e); err != nil {
			return err
		}
	}
	return nil
}

// Export writes the archive as zip to path and returns the digest of the
// written file. Content goes to a temporary file next to path first, so a
// failed export never leaves a truncated file at path.
func (a *Archive) Export(path string) (_ digest.Digest, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("unable to export archive to %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()

	digester := digest.Canonical.Digester()
	buf := bufio.NewWriter(io.MultiWriter(tmp, digester.Hash()))
	if err := a.WriteZip(buf); err != nil {
		return "", errors.Join(fmt.Errorf("unable to export archive to %s: %w", path, err), tmp.Close())
	}
	if err := buf.Flush(); err != nil {
		return "", errors.Join(fmt.Errorf("unable to export archive to %s: %w", path, err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("unable to export archive to %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("unable to export archive to %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("unable to export archive to %s: %w", path, err)
	}
	return digester.Digest(), nil
}

// FileDigest returns the canonical digest of the file at path.
func FileDigest(path string) (_ digest.Digest, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return digest.Canonical.FromReader(f)
}
