// Package wikitable reads MediaWiki tables out of wikitext and parses the
// small cell grammar the game wiki uses inside them.
package wikitable

import (
	"strings"
)

// Cell is one table cell. Attributes written before a single "|" are
// dropped; templates and links are kept verbatim.
type Cell struct {
	Text   string
	Header bool
}

// Table is a parsed {| ... |} block.
type Table struct {
	Attrs   string
	Caption string
	Rows    [][]Cell
}

// Data returns the cell texts row by row.
func (t Table) Data() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		texts := make([]string, len(row))
		for j, c := range row {
			texts[j] = c.Text
		}
		out[i] = texts
	}
	return out
}

// tableBuilder accumulates one table while scanning lines.
type tableBuilder struct {
	table Table
	row   []Cell
	// cell is the index in row of the cell receiving continuation lines, or -1.
	cell int
	// depth counts nested {| |} blocks inside the current cell.
	depth int
}

func (b *tableBuilder) endRow() {
	if len(b.row) > 0 {
		b.table.Rows = append(b.table.Rows, b.row)
	}
	b.row = nil
	b.cell = -1
}

func (b *tableBuilder) appendLine(line string) {
	if b.cell < 0 {
		return
	}
	c := &b.row[b.cell]
	if c.Text == "" {
		c.Text = line
	} else {
		c.Text += "\n" + line
	}
}

func (b *tableBuilder) addCells(body string, header bool) {
	sep := "||"
	if header {
		sep = "!!"
	}
	for _, raw := range splitTopLevel(body, sep, header) {
		b.row = append(b.row, Cell{Text: cellContent(raw), Header: header})
	}
	b.cell = len(b.row) - 1
}

func (b *tableBuilder) finish() Table {
	b.endRow()
	for _, row := range b.table.Rows {
		for j := range row {
			row[j].Text = strings.TrimSpace(row[j].Text)
		}
	}
	return b.table
}

// ParseTables returns the top-level tables of wikitext in document order.
// Tables nested inside a cell stay part of that cell's text.
func ParseTables(wikitext string) []Table {
	var (
		tables []Table
		b      *tableBuilder
	)
	for _, line := range strings.Split(wikitext, "\n") {
		trimmed := strings.TrimSpace(line)

		if b == nil {
			if strings.HasPrefix(trimmed, "{|") {
				b = &tableBuilder{cell: -1, table: Table{Attrs: strings.TrimSpace(trimmed[2:])}}
			}
			continue
		}

		if b.depth > 0 {
			switch {
			case strings.HasPrefix(trimmed, "{|"):
				b.depth++
			case strings.HasPrefix(trimmed, "|}"):
				b.depth--
			}
			b.appendLine(line)
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "{|"):
			b.depth++
			b.appendLine(line)
		case strings.HasPrefix(trimmed, "|}"):
			tables = append(tables, b.finish())
			b = nil
		case strings.HasPrefix(trimmed, "|+"):
			b.table.Caption = cellContent(trimmed[2:])
		case strings.HasPrefix(trimmed, "|-"):
			b.endRow()
		case strings.HasPrefix(trimmed, "!"):
			b.addCells(trimmed[1:], true)
		case strings.HasPrefix(trimmed, "|"):
			b.addCells(trimmed[1:], false)
		default:
			b.appendLine(line)
		}
	}
	if b != nil {
		// Unterminated table at end of input.
		tables = append(tables, b.finish())
	}
	return tables
}

// splitTopLevel splits s on sep outside {{ }} templates and [[ ]] links.
// Header rows also accept "||" as a separator.
func splitTopLevel(s, sep string, header bool) []string {
	var (
		parts []string
		start int
		depth int
	)
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "{{") || strings.HasPrefix(s[i:], "[["):
			depth++
			i++
		case depth > 0 && (strings.HasPrefix(s[i:], "}}") || strings.HasPrefix(s[i:], "]]")):
			depth--
			i++
		case depth == 0 && (strings.HasPrefix(s[i:], sep) || (header && strings.HasPrefix(s[i:], "||"))):
			parts = append(parts, s[start:i])
			i++
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// cellContent drops the attribute prefix of a cell ("style=... | text").
func cellContent(raw string) string {
	depth := 0
	for i := 0; i < len(raw); i++ {
		switch {
		case strings.HasPrefix(raw[i:], "{{") || strings.HasPrefix(raw[i:], "[["):
			depth++
			i++
		case depth > 0 && (strings.HasPrefix(raw[i:], "}}") || strings.HasPrefix(raw[i:], "]]")):
			depth--
			i++
		case depth == 0 && raw[i] == '|':
			return strings.TrimSpace(raw[i+1:])
		}
	}
	return strings.TrimSpace(raw)
}
