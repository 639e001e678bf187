package bestbooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bookshelf/internal/fileutil"
	"bookshelf/internal/logging"
)

// Library manages the yearly listing files on disk.
type Library struct {
	dir    string
	logger *slog.Logger
}

// NewLibrary creates a library rooted at dir.
func NewLibrary(dir string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Library{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "bestbooks"),
	}
}

// Dir returns the directory holding the listing files.
func (l *Library) Dir() string {
	return l.dir
}

// LocalPath returns where the listing for a year lives on disk.
func (l *Library) LocalPath(year int) string {
	return filepath.Join(l.dir, fmt.Sprintf("best-books-%d.json", year))
}

// HasYear reports whether the listing for a year is already present.
func (l *Library) HasYear(year int) bool {
	info, err := os.Stat(l.LocalPath(year))
	return err == nil && !info.IsDir()
}

// SaveListing reindents the raw listing document and writes it for a year,
// returning the path it was stored at.
func (l *Library) SaveListing(year int, payload []byte) (string, error) {
	var indented bytes.Buffer
	if err := json.Indent(&indented, payload, "", "  "); err != nil {
		return "", fmt.Errorf("reformat listing for %d: %w", year, err)
	}
	path := l.LocalPath(year)
	if err := fileutil.EnsureParentDir(path); err != nil {
		return "", fmt.Errorf("create books directory: %w", err)
	}
	if err := os.WriteFile(path, indented.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write listing for %d: %w", year, err)
	}
	return path, nil
}

// LoadYear parses the local listing for a year. A missing file, unreadable
// JSON, or a payload that is not a list all yield no books.
func (l *Library) LoadYear(year int) []Book {
	data, err := os.ReadFile(l.LocalPath(year))
	if err != nil {
		return nil
	}
	books, ok := decodeListing(data)
	if !ok {
		l.logger.Debug("skipping unreadable listing",
			logging.Int("year", year),
			logging.String("path", l.LocalPath(year)))
		return nil
	}
	return books
}

// Books loads every parseable book across the given years, in year order.
func (l *Library) Books(years []int) []YearBook {
	var out []YearBook
	for _, year := range years {
		for _, book := range l.LoadYear(year) {
			out = append(out, YearBook{Year: year, Book: book})
		}
	}
	return out
}
