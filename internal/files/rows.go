package files

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

// Rows loads a structured file under dir into one property map per row,
// keyed by the header columns. Short rows are padded with empty strings so
// a ragged line never aborts the load; the caller decides whether a row
// with a missing key is usable.
func Rows(dir, path string) ([]map[string]string, error) {
	f, err := os.Open(filepath.Join(dir, path))
	if err != nil {
		return nil, errx.Wrap(errx.KindNotFound, fmt.Sprintf("source file %s", path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, errx.Validation("unreadable source file", fmt.Sprintf("%s: no header row", path))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errx.Validation("unreadable source file", fmt.Sprintf("%s: %v", path, err))
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
