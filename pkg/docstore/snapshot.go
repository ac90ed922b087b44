package docstore

import (
	"bytes"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/records"
)

// encode serializes d in the record file format.
func encode(d *document.Document) ([]byte, error) {
	recs, err := records.Export(d)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := records.WriteJSON(recs, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode is the inverse of encode.
func decode(data []byte) (*document.Document, error) {
	recs, err := records.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return records.Assemble(recs)
}
