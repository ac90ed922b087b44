package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ierrors "github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/records"
)

const fileExt = ".json"

// File stores each document as <dir>/<docID>.json in the record file format
// read by records.ReadJSON.
type File struct {
	dir string
}

// NewFile creates a file repository rooted at dir, creating dir if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, ierrors.New(ierrors.ErrCodeInvalidConfig, "file storage needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr(err, "create %s", dir)
	}
	return &File{dir: dir}, nil
}

// Path returns the file that holds docID.
func (f *File) Path(docID string) string {
	return filepath.Join(f.dir, docID+fileExt)
}

func (f *File) Load(ctx context.Context, docID string) ([]records.Record, error) {
	if err := ierrors.ValidateDocumentID(docID); err != nil {
		return nil, err
	}
	recs, err := records.ImportFile(f.Path(docID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(docID)
	}
	return recs, err
}

// Save writes to a temporary file and renames it over the old one.
func (f *File) Save(ctx context.Context, docID string, recs []records.Record) error {
	if err := checkRecords(docID, recs); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, "."+docID+"-*")
	if err != nil {
		return storageErr(err, "save %s", docID)
	}
	defer os.Remove(tmp.Name())
	if err := records.WriteJSON(recs, tmp); err != nil {
		tmp.Close()
		return storageErr(err, "save %s", docID)
	}
	if err := tmp.Close(); err != nil {
		return storageErr(err, "save %s", docID)
	}
	return storageErr(os.Rename(tmp.Name(), f.Path(docID)), "save %s", docID)
}

func (f *File) Delete(ctx context.Context, docID string) error {
	if err := ierrors.ValidateDocumentID(docID); err != nil {
		return err
	}
	err := os.Remove(f.Path(docID))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(docID)
	}
	return storageErr(err, "delete %s", docID)
}

// List returns the stored document ids in sorted order.
func (f *File) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, storageErr(err, "list %s", f.dir)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *File) Close() error { return nil }

var _ Repository = (*File)(nil)
