// Package ledger keeps the append-only attribution log of stored recordings.
//
// The log is one tabular document in object storage. Every append reads the
// whole document, adds a row, and writes the whole document back.
package ledger

import (
	"errors"
	"fmt"
)

// Header is the fixed first row of every ledger document.
var Header = []string{"Recording Name", "Campaign Number"}

var (
	// ErrReadFailed means the existing ledger could not be fetched or parsed.
	ErrReadFailed = errors.New("ledger read failed")
	// ErrWriteFailed means the updated ledger could not be encoded or stored.
	ErrWriteFailed = errors.New("ledger write failed")
)

// Entry is one ledger row.
type Entry struct {
	RecordingKey string `json:"recording_key"`
	Campaign     string `json:"campaign"`
}

// Codec converts between stored bytes and rows. Row 0 is the header.
type Codec interface {
	Decode(data []byte) ([][]string, error)
	Encode(rows [][]string) ([]byte, error)
	ContentType() string
}

// Document is the in-memory form of the ledger.
type Document struct {
	rows [][]string
}

// NewDocument returns a document holding only the header row.
func NewDocument() *Document {
	header := make([]string, len(Header))
	copy(header, Header)
	return &Document{rows: [][]string{header}}
}

// ParseDocument wraps decoded rows. At least the header row must be present.
func ParseDocument(rows [][]string) (*Document, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("ledger document has no header row")
	}
	return &Document{rows: rows}, nil
}

// Append adds entry as the last row.
func (d *Document) Append(entry Entry) {
	d.rows = append(d.rows, []string{entry.RecordingKey, entry.Campaign})
}

// Rows returns every row including the header. Callers must not mutate it.
func (d *Document) Rows() [][]string {
	return d.rows
}

// Len returns the number of entry rows, excluding the header.
func (d *Document) Len() int {
	return len(d.rows) - 1
}

// Entries returns the entry rows in insertion order. Short rows yield empty
// fields rather than being skipped so positions stay stable.
func (d *Document) Entries() []Entry {
	entries := make([]Entry, 0, d.Len())
	for _, row := range d.rows[1:] {
		var entry Entry
		if len(row) > 0 {
			entry.RecordingKey = row[0]
		}
		if len(row) > 1 {
			entry.Campaign = row[1]
		}
		entries = append(entries, entry)
	}
	return entries
}
