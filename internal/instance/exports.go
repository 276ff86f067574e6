package instance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"scribl/internal/ingest"
)

var ErrExportNotFound = errors.New("zotero csv export not found")

const exportSuffix = "_zotero_data.csv"

// LibrarySource writes a library as a Zotero CSV export.
type LibrarySource interface {
	WriteCSV(ctx context.Context, w io.Writer) (int, error)
}

// ImportCSV copies a Zotero CSV export into the exports folder under a
// timestamped name and returns the new path.
func (i *Instance) ImportCSV(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening zotero csv: %w", err)
	}
	defer in.Close()

	dst, err := i.writeExport(func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
	if err != nil {
		return "", err
	}
	i.log.Info("imported zotero csv", "from", src, "to", filepath.Base(dst))
	return dst, nil
}

// ImportLibrary fetches a library and stores it as a new export.
func (i *Instance) ImportLibrary(ctx context.Context, lib LibrarySource) (string, error) {
	var items int
	dst, err := i.writeExport(func(w io.Writer) error {
		var err error
		items, err = lib.WriteCSV(ctx, w)
		return err
	})
	if err != nil {
		return "", err
	}
	i.log.Info("imported zotero library", "items", items, "to", filepath.Base(dst))
	return dst, nil
}

// writeExport writes through a temporary file so a failed import never
// becomes the latest export.
func (i *Instance) writeExport(write func(io.Writer) error) (string, error) {
	dir := i.path(ExportsDir)
	tmp, err := os.CreateTemp(dir, ".import-*")
	if err != nil {
		return "", fmt.Errorf("creating export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	dst := filepath.Join(dir, i.timestamp()+exportSuffix)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("storing export: %w", err)
	}
	return dst, nil
}

// CSVExports returns the export file names, oldest first.
func (i *Instance) CSVExports() ([]string, error) {
	entries, err := os.ReadDir(i.path(ExportsDir))
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	exports := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".csv") {
			continue
		}
		exports = append(exports, name)
	}
	slices.Sort(exports)
	return exports, nil
}

// LoadCSV builds the graph of an export, the latest when name is empty,
// and makes it the current graph.
func (i *Instance) LoadCSV(ctx context.Context, name string) (*ingest.Result, error) {
	exports, err := i.CSVExports()
	if err != nil {
		return nil, err
	}
	if name == "" {
		if len(exports) == 0 {
			return nil, ErrNoExports
		}
		name = exports[len(exports)-1]
	}
	name = filepath.Base(name)
	if !slices.Contains(exports, name) {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}

	path := i.path(ExportsDir, name)
	result, err := ingest.Run(ctx, i.Config, i.Schema, nil, ingest.Options{Path: path, Logger: i.log})
	if err != nil {
		return nil, err
	}
	i.current = result
	return result, nil
}
