package wikitable

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned by Row.Get for a header the table lacks.
var ErrMissingColumn = errors.New("missing column")

// TableReader gives column-by-name access to a table whose first row is
// the header.
type TableReader struct {
	name    string
	table   Table
	headers []string
	index   map[string]int
	data    [][]string
}

// NewTableReader wraps table. name is only used in messages.
func NewTableReader(table Table, name string) *TableReader {
	r := &TableReader{name: name, table: table, index: make(map[string]int)}
	data := table.Data()
	if len(data) == 0 {
		return r
	}
	for i, h := range data[0] {
		h = NormalizeHeader(h)
		r.headers = append(r.headers, h)
		if _, dup := r.index[h]; !dup {
			r.index[h] = i
		}
	}
	r.data = data[1:]
	return r
}

// NormalizeHeader trims a header, turns <br> into a space and collapses
// runs of whitespace.
func NormalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "<br>", " ")
	return strings.Join(strings.Fields(h), " ")
}

func (r *TableReader) Name() string      { return r.name }
func (r *TableReader) Table() Table      { return r.table }
func (r *TableReader) Headers() []string { return r.headers }

// Len is the number of data rows.
func (r *TableReader) Len() int { return len(r.data) }

// Width is the number of header columns.
func (r *TableReader) Width() int { return len(r.headers) }

// HasColumn reports whether the header row names col.
func (r *TableReader) HasColumn(col string) bool {
	_, ok := r.index[col]
	return ok
}

// Row returns data row i. It panics when i is out of range, like a slice.
func (r *TableReader) Row(i int) Row {
	_ = r.data[i]
	return Row{reader: r, index: i}
}

// Rows returns every data row in order.
func (r *TableReader) Rows() []Row {
	rows := make([]Row, len(r.data))
	for i := range r.data {
		rows[i] = Row{reader: r, index: i}
	}
	return rows
}

func (r *TableReader) String() string {
	return fmt.Sprintf("TableReader(%s, %d columns, %d rows)", r.name, r.Width(), r.Len())
}

// Row is one data row of a TableReader.
type Row struct {
	reader *TableReader
	index  int
}

// Index is the row's position among the data rows.
func (r Row) Index() int { return r.index }

// Cells returns the row's cell texts.
func (r Row) Cells() []string { return r.reader.data[r.index] }

// Has reports whether the table has column col and this row reaches it.
func (r Row) Has(col string) bool {
	_, ok := r.Lookup(col)
	return ok
}

// Lookup returns the cell under col.
func (r Row) Lookup(col string) (string, bool) {
	i, ok := r.reader.index[col]
	if !ok {
		return "", false
	}
	cells := r.Cells()
	if i >= len(cells) {
		return "", false
	}
	return cells[i], true
}

// Get returns the cell under col, or ErrMissingColumn.
func (r Row) Get(col string) (string, error) {
	v, ok := r.Lookup(col)
	if !ok {
		return "", fmt.Errorf("%s row %d: %q: %w", r.reader.name, r.index, col, ErrMissingColumn)
	}
	return v, nil
}

func (r Row) String() string {
	return fmt.Sprintf("%s[%d] = %q", r.reader.name, r.index, r.Cells())
}
