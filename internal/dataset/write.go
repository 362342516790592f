package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mrio-cli/internal/model"
)

// WriteCSV encodes rows (a slice of csv-tagged structs) to path. The file is
// written next to its destination and renamed into place, so readers never see
// a partial table. An empty slice still writes the header.
func WriteCSV[T any](path string, rows []T) error {
	return writeAtomic(path, encodeCSV(path, rows))
}

func encodeCSV[T any](path string, rows []T) func(f *os.File) error {
	return func(f *os.File) error {
		w := csv.NewWriter(f)
		enc := csvutil.NewEncoder(w)
		if len(rows) == 0 {
			var zero T
			if err := enc.EncodeHeader(zero); err != nil {
				return eris.Wrapf(err, "dataset: encode header %s", path)
			}
		} else if err := enc.Encode(rows); err != nil {
			return eris.Wrapf(err, "dataset: encode %s", path)
		}
		w.Flush()
		return w.Error()
	}
}

// WriteMissingItems writes the deduplicated list of items without impact coefficients.
func WriteMissingItems(path string, items []model.MissingItem) error {
	return writeAtomic(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		fmt.Fprintln(w, "Missing items and their codes:")
		for _, it := range items {
			fmt.Fprintf(w, " - %s: %d\n", it.Name, it.Code)
		}
		return w.Flush()
	})
}

// WriteFile writes data to path atomically.
func WriteFile(path string, data []byte) error {
	return writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

func writeAtomic(path string, fill func(f *os.File) error) error {
	tmpPath, err := stage(path, fill)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "dataset: rename %s", path)
	}
	return nil
}

// stage writes a temp file next to path and returns its name.
func stage(path string, fill func(f *os.File) error) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "dataset: mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", eris.Wrapf(err, "dataset: create temp for %s", path)
	}
	tmpPath := tmp.Name()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", eris.Wrapf(err, "dataset: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", eris.Wrapf(err, "dataset: close %s", path)
	}
	return tmpPath, nil
}

type stagedFile struct {
	tmp, path string
}

// FileSet publishes several tables together: every table is staged to a temp
// file first, and none replaces its destination until all are staged.
// A FileSet is not safe for concurrent use.
type FileSet struct {
	staged []stagedFile
}

// StageCSV encodes rows like WriteCSV but defers publishing to fs.Commit.
func StageCSV[T any](fs *FileSet, path string, rows []T) error {
	tmp, err := stage(path, encodeCSV(path, rows))
	if err != nil {
		return err
	}
	fs.staged = append(fs.staged, stagedFile{tmp: tmp, path: path})
	return nil
}

// Commit renames every staged file into place. If a rename fails, every
// destination of the set is removed so no mix of old and new tables remains.
func (fs *FileSet) Commit() error {
	for i, sf := range fs.staged {
		if err := os.Rename(sf.tmp, sf.path); err != nil {
			for _, rest := range fs.staged[i:] {
				_ = os.Remove(rest.tmp)
			}
			for _, all := range fs.staged {
				if all.path != sf.path {
					_ = os.Remove(all.path)
				}
			}
			fs.staged = nil
			return eris.Wrapf(err, "dataset: rename %s", sf.path)
		}
	}
	fs.staged = nil
	return nil
}

// Abort discards staged files; destinations keep their previous contents.
func (fs *FileSet) Abort() {
	for _, sf := range fs.staged {
		_ = os.Remove(sf.tmp)
	}
	fs.staged = nil
}
