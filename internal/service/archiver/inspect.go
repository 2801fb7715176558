package archiver

import (
	stdzip "archive/zip"
	"context"
	"errors"
	"fmt"
	"os"

	arc "github.com/mholt/archiver"

	"github.com/oshokin/plugin-packager/internal/domain/packaging"
)

// Inspect lists the file entries of an existing archive in stored order.
func Inspect(ctx context.Context, archivePath string) ([]string, error) {
	if _, err := os.Stat(archivePath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", packaging.ErrNotFound, archivePath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", packaging.ErrIO, archivePath, err)
	}

	var entries []string

	err := arc.Walk(archivePath, func(file arc.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if file.IsDir() {
			return nil
		}

		entries = append(entries, entryName(file))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", packaging.ErrIO, archivePath, err)
	}

	return entries, nil
}

// entryName returns the full stored path; File.Name only holds the base name.
func entryName(file arc.File) string {
	switch header := file.Header.(type) {
	case stdzip.FileHeader:
		return header.Name
	case *stdzip.FileHeader:
		return header.Name
	default:
		return file.Name()
	}
}
