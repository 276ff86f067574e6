// Package zotero reads bibliographic records exported from Zotero, either
// as a CSV export or directly from the Zotero web API.
package zotero

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"scribl/internal/config"
	"scribl/internal/graphdb"
)

// KeyColumn is the column every export row is keyed by.
const KeyColumn = "Key"

// EmptyValue replaces empty cells.
const EmptyValue = "none"

var (
	ErrEmptyExport   = errors.New("export has no header row")
	ErrKeyMap        = errors.New("invalid key map")
	ErrMissingColumn = errors.New("column not found in export")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Export is a parsed Zotero CSV export. Rows are keyed by their first column
// and kept in file order; a later row with the same key replaces the earlier
// one in place.
type Export struct {
	Columns []string
	keys    []string
	rows    map[string]map[string]string
}

// ReadCSV reads a Zotero CSV export from path.
func ReadCSV(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zotero export: %w", err)
	}
	export, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing zotero export %s: %w", path, err)
	}
	return export, nil
}

// ParseCSV reads an export from r. A leading byte order mark is skipped,
// double quotes inside values are dropped and empty cells read as "none".
func ParseCSV(r io.Reader) (*Export, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyExport
	}
	if err != nil {
		return nil, err
	}

	export := &Export{Columns: header, rows: make(map[string]map[string]string)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		key := record[0]
		row := map[string]string{KeyColumn: key}
		for n := 1; n < len(header); n++ {
			value := ""
			if n < len(record) {
				value = strings.ReplaceAll(record[n], `"`, "")
			}
			if value == "" {
				value = EmptyValue
			}
			row[header[n]] = value
		}
		if _, ok := export.rows[key]; !ok {
			export.keys = append(export.keys, key)
		}
		export.rows[key] = row
	}
	return export, nil
}

// Keys returns the record keys in file order.
func (e *Export) Keys() []string {
	return append([]string(nil), e.keys...)
}

func (e *Export) Len() int {
	return len(e.keys)
}

// Row returns the column values of one record.
func (e *Export) Row(key string) (map[string]string, bool) {
	row, ok := e.rows[key]
	return row, ok
}

func (e *Export) hasColumn(name string) bool {
	if name == KeyColumn {
		return true
	}
	for _, column := range e.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// MapKeys checks that every source column of km exists in the export and
// that km starts with Key→zotero_key and Title→title.
func (e *Export) MapKeys(km config.KeyMap) error {
	if err := config.ValidateKeyMap(km); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyMap, err)
	}
	for _, column := range km.ZoteroKeys {
		if !e.hasColumn(column) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, column)
		}
	}
	return nil
}

// Records maps every row through km and takes the annotation from the
// annotation column. Rows whose annotation cell was empty get no annotation.
// That includes cells holding EmptyValue ("none"), so untagged records parse
// to nothing and add no "Unable to parse statement [none]" error.
func (e *Export) Records(km config.KeyMap, annotationField string) ([]graphdb.Record, error) {
	if err := e.MapKeys(km); err != nil {
		return nil, err
	}
	if !e.hasColumn(annotationField) {
		return nil, fmt.Errorf("%w: annotation field %q", ErrMissingColumn, annotationField)
	}

	records := make([]graphdb.Record, 0, len(e.keys))
	for _, key := range e.keys {
		row := e.rows[key]
		metadata := make([]graphdb.MetadataField, 0, len(km.CypherKeys))
		for i, name := range km.CypherKeys {
			metadata = append(metadata, graphdb.MetadataField{Name: name, Value: row[km.ZoteroKeys[i]]})
		}
		annotation := row[annotationField]
		if annotation == EmptyValue {
			annotation = ""
		}
		records = append(records, graphdb.Record{Key: key, Metadata: metadata, Annotation: annotation})
	}
	return records, nil
}
