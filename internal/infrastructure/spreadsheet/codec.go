package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DefaultSheet is the sheet written by Encode.
const DefaultSheet = "Sheet1"

var errNoSheets = errors.New("workbook has no sheets")

// Codec reads and writes ledger rows as a single-sheet XLSX workbook.
type Codec struct{}

func NewCodec() Codec {
	return Codec{}
}

// Decode returns the rows of the workbook's first sheet. Trailing empty cells
// are dropped by the reader, so rows may be shorter than the header.
func (Codec) Decode(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// Encode writes rows into a new workbook, one row per line starting at A1.
func (Codec) Encode(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(DefaultSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (Codec) ContentType() string {
	return ContentType
}
