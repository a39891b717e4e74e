package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mvdwal/sportlog/internal/activities"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoHeaderRow         = errors.New("no header row found")
)

// Table is a parsed spreadsheet: cleaned headers plus one raw row per data line.
type Table struct {
	Headers []string
	Rows    []activities.RawRow
}

// ReadTable parses a CSV or XLSX export into a Table. The format is
// derived from the file name extension.
func ReadTable(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}
}

func ReadCSV(r io.Reader) (*Table, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1

	headerRecord, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeaderRow
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	headers := cleanHeaders(headerRecord)

	var rows []activities.RawRow
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		rows = append(rows, recordToRow(headers, record))
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

func ReadXLSX(r io.Reader) (*Table, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeaderRow
	}

	// only the first sheet holds the activities export
	records, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeaderRow
	}

	headers := cleanHeaders(records[0])

	var rows []activities.RawRow
	for _, record := range records[1:] {
		rows = append(rows, recordToRow(headers, record))
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

func cleanHeaders(record []string) []string {
	headers := make([]string, 0, len(record))
	for _, header := range record {
		headers = append(headers, activities.CleanHeader(header))
	}
	return headers
}

// recordToRow zips a record with the headers, padding short records
// with empty values and dropping cells beyond the header count.
func recordToRow(headers []string, record []string) activities.RawRow {
	row := make(activities.RawRow, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		if i < len(record) {
			row[header] = strings.TrimSpace(record[i])
		} else {
			row[header] = ""
		}
	}
	return row
}
