package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/devtoc/infograph/pkg/errors"
)

// ReadJSON decodes a record file from r.
//
// The input is a JSON object keyed by record path:
//
//	{
//	  "infographs/d1": {"id": "d1", "data": {"title": "...", "pageOrder": ["p1"]}},
//	  "infographs/d1/pages/p1": {"id": "p1", "data": {"widgetLayerOrder": [], ...}},
//	  "infographs/d1/widgets/text-1": {"id": "text-1", "data": {"type": "text", ...}}
//	}
//
// Records are returned sorted by path with their data compacted. ReadJSON
// only checks the JSON shape; use [Assemble] to validate the records and
// build a document. ReadJSON does not close r.
func ReadJSON(r io.Reader) ([]Record, error) {
	var raw map[string]Record
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode records")
	}
	out := make([]Record, 0, len(raw))
	for _, path := range slices.Sorted(maps.Keys(raw)) {
		rec := raw[path]
		rec.Path = path
		if len(rec.Data) > 0 {
			var buf bytes.Buffer
			if err := json.Compact(&buf, rec.Data); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "record %s", path)
			}
			rec.Data = buf.Bytes()
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteJSON encodes records as an indented, path-keyed JSON object.
// The output can be read back with [ReadJSON].
func WriteJSON(recs []Record, w io.Writer) error {
	out := make(map[string]Record, len(recs))
	for _, r := range recs {
		out[r.Path] = r
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ImportFile reads the record file at path.
func ImportFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportFile writes records to a file at path.
func ExportFile(recs []Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(recs, f)
}

// Hash returns a stable digest of a record set, independent of record
// order. It keys caches of derived data such as migrated documents.
func Hash(recs []Record) string {
	sorted := slices.Clone(recs)
	slices.SortFunc(sorted, func(a, b Record) int { return strings.Compare(a.Path, b.Path) })
	h := newHasher()
	for _, r := range sorted {
		h.add(r.Path, r.ID, r.Data)
	}
	return h.sum()
}
