package sink

import (
	"bytes"
	"context"

	"github.com/l2hyunwoo/craby/internal/errors"
)

// Status describes what Commit did with a staged file.
type Status string

const (
	StatusWritten   Status = "written"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"

	// StatusStaged marks files of a dry run, which are never committed.
	StatusStaged Status = "staged"
)

// Result is the outcome of committing one staged file.
type Result struct {
	Path   string
	Status Status
}

// Commit writes every staged file to fs in sorted path order.
// Files whose on-disk content is already identical are left untouched, and
// create-only files that already exist are skipped.
func Commit(ctx context.Context, staged *MemorySink, fs *FilesystemSink) ([]Result, error) {
	files := staged.Staged()
	results := make([]Result, 0, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		current, err := fs.ReadFile(f.Path)
		if err != nil {
			return results, errors.Wrapf(err, "read %s", f.Path)
		}
		if current != nil {
			if f.CreateOnly {
				results = append(results, Result{Path: f.Path, Status: StatusSkipped})
				continue
			}
			if bytes.Equal(current, f.Content) {
				results = append(results, Result{Path: f.Path, Status: StatusUnchanged})
				continue
			}
		}

		target := fs
		if f.CreateOnly {
			target = &FilesystemSink{Root: fs.Root, Mode: fs.Mode, Overwrite: false}
		}
		if err := target.WriteFile(ctx, f.Path, f.Content); err != nil {
			if errors.Is(err, ErrExist) {
				results = append(results, Result{Path: f.Path, Status: StatusSkipped})
				continue
			}
			return results, errors.Wrapf(err, "write %s", f.Path)
		}
		results = append(results, Result{Path: f.Path, Status: StatusWritten})
	}
	return results, nil
}
