package manifest

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha512"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	domain "github.com/oshokin/plugin-packager/internal/domain/manifest"
	"github.com/oshokin/plugin-packager/internal/domain/packaging"
)

// Repository defines persistence operations for a single manifest file.
type Repository interface {
	Path() string
	Load(ctx context.Context) (*domain.Document, []byte, error)
	Write(ctx context.Context, contents []byte) error
}

// DefaultFileMode is the mode of rewritten manifests.
const DefaultFileMode os.FileMode = 0o644

// FileRepository stores a manifest as a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the manifest.
	path string
}

// NewFileRepository creates a repository for the manifest at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the manifest location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and parses the manifest. It returns the parsed document together
// with the raw file contents.
func (r *FileRepository) Load(_ context.Context) (*domain.Document, []byte, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", packaging.ErrNotFound, r.path)
		}

		return nil, nil, fmt.Errorf("%w: read %s: %w", packaging.ErrIO, r.path, err)
	}

	doc, err := domain.Parse(contents)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", r.path, err)
	}

	return doc, contents, nil
}

// Write replaces the manifest with contents. The file is swapped in with a
// rename, so readers see either the old or the new manifest.
func (r *FileRepository) Write(_ context.Context, contents []byte) error {
	// go-update renames the current file aside before moving the new one in.
	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(r.path, nil, DefaultFileMode); err != nil {
			return fmt.Errorf("%w: create %s: %w", packaging.ErrIO, r.path, err)
		}
	}

	checksum := sha512.Sum512(contents)

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: DefaultFileMode,
		Checksum:   checksum[:],
		Hash:       crypto.SHA512,
	}

	if err := goupdate.Apply(bytes.NewReader(contents), options); err != nil {
		return fmt.Errorf("%w: write %s: %w", packaging.ErrIO, r.path, err)
	}

	return nil
}
