package archiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/oshokin/plugin-packager/internal/domain/packaging"
	"github.com/oshokin/plugin-packager/internal/logger"
)

const (
	// DefaultCompressionLevel is the deflate level used unless WithCompressionLevel is given.
	DefaultCompressionLevel = 6

	// DefaultFileMode is the mode of produced archives.
	DefaultFileMode os.FileMode = 0o644

	// tempSuffix ends the name of every temporary archive.
	tempSuffix = ".tmp"
)

var (
	// errNotADirectory is returned when the root to archive is a file.
	errNotADirectory = errors.New("not a directory")
	// errArchiveIsDirectory is returned when the destination path is a directory.
	errArchiveIsDirectory = errors.New("archive path is a directory")
)

// Option configures an archive build.
type Option func(*archiver)

// WithCompressionLevel sets the deflate level, from flate.BestSpeed to flate.BestCompression.
// Values outside that range fall back to DefaultCompressionLevel.
func WithCompressionLevel(level int) Option {
	return func(a *archiver) {
		if level >= flate.BestSpeed && level <= flate.BestCompression {
			a.level = level
		}
	}
}

// archiver holds the state of a single archive build.
type archiver struct {
	// root is the directory being archived.
	root string
	// archivePath is the final location of the archive.
	archivePath string
	// archiveName is the base name of archivePath; files with this name are skipped.
	archiveName string
	// level is the deflate compression level.
	level int
	// entries collects the names written to the archive.
	entries []string
}

// Archive packs every regular file under root into a zip at archivePath and
// returns the artifact description. Existing zips are never packed.
func Archive(ctx context.Context, root, archivePath string, opts ...Option) (*packaging.ArtifactInfo, error) {
	a := &archiver{
		root:        filepath.Clean(root),
		archivePath: filepath.Clean(archivePath),
		archiveName: filepath.Base(archivePath),
		level:       DefaultCompressionLevel,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a.Run(ctx)
}

// Run validates the root, removes a stale archive and builds the new one.
func (a *archiver) Run(ctx context.Context) (*packaging.ArtifactInfo, error) {
	if err := a.checkRoot(); err != nil {
		return nil, err
	}

	if err := a.removeStale(ctx); err != nil {
		return nil, err
	}

	if err := a.removeLeftovers(ctx); err != nil {
		return nil, err
	}

	if err := a.build(ctx); err != nil {
		return nil, err
	}

	info, err := os.Stat(a.archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", packaging.ErrIO, a.archivePath, err)
	}

	return &packaging.ArtifactInfo{
		Path:    a.archivePath,
		Size:    info.Size(),
		Entries: a.entries,
	}, nil
}

// checkRoot ensures the directory to archive exists.
func (a *archiver) checkRoot() error {
	info, err := os.Stat(a.root)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", packaging.ErrNotFound, a.root)
	} else if err != nil {
		return fmt.Errorf("%w: stat %s: %w", packaging.ErrIO, a.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s: %w", packaging.ErrIO, a.root, errNotADirectory)
	}

	return nil
}

// removeStale deletes an archive left by a previous build.
func (a *archiver) removeStale(ctx context.Context) error {
	info, err := os.Stat(a.archivePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("%w: stat %s: %w", packaging.ErrIO, a.archivePath, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%w: %s: %w", packaging.ErrIO, a.archivePath, errArchiveIsDirectory)
	}

	if err = os.Remove(a.archivePath); err != nil {
		return fmt.Errorf("%w: remove %s: %w", packaging.ErrIO, a.archivePath, err)
	}

	logger.Infof(ctx, "   Removed existing %s", a.archiveName)

	return nil
}

// removeLeftovers deletes temporary archives left by interrupted builds.
func (a *archiver) removeLeftovers(ctx context.Context) error {
	dir := filepath.Dir(a.archivePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", packaging.ErrIO, dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !a.isTempArchive(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err = os.Remove(path); err != nil {
			return fmt.Errorf("%w: remove %s: %w", packaging.ErrIO, path, err)
		}

		logger.Infof(ctx, "   Removed leftover %s", entry.Name())
	}

	return nil
}

// tempPrefix starts the name of every temporary archive for this build.
func (a *archiver) tempPrefix() string {
	return "." + a.archiveName + "-"
}

// isTempArchive reports whether name belongs to a temporary archive of this build,
// including ones abandoned by an earlier run.
func (a *archiver) isTempArchive(name string) bool {
	return strings.HasPrefix(name, a.tempPrefix()) && strings.HasSuffix(name, tempSuffix)
}

// isArtifact reports whether a file must stay out of the archive.
func (a *archiver) isArtifact(name string) bool {
	return name == a.archiveName || a.isTempArchive(name) || packaging.IsArchiveArtifact(name)
}

// build writes the archive to a temporary file and renames it into place.
// The temporary file is removed on every failure path.
func (a *archiver) build(ctx context.Context) (err error) {
	tempFile, err := os.CreateTemp(filepath.Dir(a.archivePath), a.tempPrefix()+"*"+tempSuffix)
	if err != nil {
		return fmt.Errorf("%w: create temporary archive: %w", packaging.ErrIO, err)
	}

	tempPath := tempFile.Name()

	defer func() {
		if err != nil {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	zipWriter := zip.NewWriter(tempFile)
	zipWriter.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, a.level)
	})

	if err = filepath.WalkDir(a.root, func(path string, entry fs.DirEntry, walkErr error) error {
		return a.visit(ctx, zipWriter, path, entry, walkErr)
	}); err != nil {
		return err
	}

	if err = zipWriter.Close(); err != nil {
		return fmt.Errorf("%w: finish archive: %w", packaging.ErrIO, err)
	}

	if err = tempFile.Chmod(DefaultFileMode); err != nil {
		return fmt.Errorf("%w: chmod temporary archive: %w", packaging.ErrIO, err)
	}

	if err = tempFile.Close(); err != nil {
		return fmt.Errorf("%w: close temporary archive: %w", packaging.ErrIO, err)
	}

	if err = os.Rename(tempPath, a.archivePath); err != nil {
		return fmt.Errorf("%w: move archive into place: %w", packaging.ErrIO, err)
	}

	return nil
}

// visit handles a single walk step.
func (a *archiver) visit(
	ctx context.Context,
	zipWriter *zip.Writer,
	path string,
	entry fs.DirEntry,
	walkErr error,
) error {
	if walkErr != nil {
		return fmt.Errorf("%w: walk %s: %w", packaging.ErrIO, path, walkErr)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if entry.IsDir() {
		return nil
	}

	if a.isArtifact(entry.Name()) {
		logger.DebugKV(ctx, "Skipping archive artifact", "path", path)
		return nil
	}

	info, regular, err := fileInfo(path, entry)
	if err != nil {
		return err
	}

	if !regular {
		logger.DebugKV(ctx, "Skipping non-regular file", "path", path)
		return nil
	}

	relative, err := filepath.Rel(a.root, path)
	if err != nil {
		return fmt.Errorf("%w: relative path of %s: %w", packaging.ErrIO, path, err)
	}

	entryName := filepath.ToSlash(relative)

	if err = a.addFile(zipWriter, path, entryName, info); err != nil {
		return err
	}

	a.entries = append(a.entries, entryName)
	logger.Infof(ctx, "   Added: %s", entryName)

	return nil
}

// fileInfo describes the file a walk entry stands for. Symlinks are resolved,
// so a link to a regular file is packed with the target's contents. Links to
// directories are not descended into.
func fileInfo(path string, entry fs.DirEntry) (fs.FileInfo, bool, error) {
	var (
		info fs.FileInfo
		err  error
	)

	if entry.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = entry.Info()
	}

	if err != nil {
		return nil, false, fmt.Errorf("%w: stat %s: %w", packaging.ErrIO, path, err)
	}

	return info, info.Mode().IsRegular(), nil
}

// addFile streams a file into the archive under entryName.
func (a *archiver) addFile(zipWriter *zip.Writer, path, entryName string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("%w: header for %s: %w", packaging.ErrIO, path, err)
	}

	header.Name = entryName
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("%w: create entry %s: %w", packaging.ErrIO, entryName, err)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", packaging.ErrIO, path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	if _, err = io.Copy(writer, file); err != nil {
		return fmt.Errorf("%w: compress %s: %w", packaging.ErrIO, path, err)
	}

	return nil
}
