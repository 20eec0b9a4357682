package table

import (
	"fmt"
	"strconv"

	"holonet.gg/v1/encounter-builder/src/object"
)

type ColumnKind int

const (
	FieldColumn ColumnKind = iota
	ComputedColumn
)

// RenderFunc computes a cell from the row key, the record and the record's
// position.
type RenderFunc func(rowKey any, record object.Mapping, index int) any

// Column is either a direct field lookup or a computed cell.
type Column struct {
	Kind        ColumnKind
	FieldName   string
	DisplayName string
	Render      RenderFunc
}

// Field projects record[name] under the header displayName.
func Field(name, displayName string) Column {
	return Column{Kind: FieldColumn, FieldName: name, DisplayName: displayName}
}

// Computed renders each cell with fn. displayName may be empty.
func Computed(displayName string, fn RenderFunc) Column {
	return Column{Kind: ComputedColumn, DisplayName: displayName, Render: fn}
}

type HeaderCell struct {
	Key   string
	Label string
}

type Cell struct {
	Key   string
	Value any
}

type Row struct {
	Key    any
	Index  int
	Record object.Mapping
	Cells  []Cell
}

// Table is the projection of a record set through a column list.
type Table struct {
	Headers []HeaderCell
	Rows    []Row
}

// Render projects data through columns. Rows are keyed by
// record[uniqueFieldName], or by position when uniqueFieldName is empty or
// the record lacks the field. Position keys drift when data is reordered,
// so pass a stable field when the data can be refetched.
func Render(data []object.Mapping, columns []Column, uniqueFieldName string) Table {
	t := Table{
		Headers: make([]HeaderCell, len(columns)),
		Rows:    make([]Row, 0, len(data)),
	}
	for i, column := range columns {
		t.Headers[i] = HeaderCell{Key: column.key(i), Label: column.DisplayName}
	}

	for index, record := range data {
		var rowKey any = index
		if uniqueFieldName != "" {
			if value, ok := record[uniqueFieldName]; ok {
				rowKey = value
			}
		}

		row := Row{Key: rowKey, Index: index, Record: record, Cells: make([]Cell, len(columns))}
		for i, column := range columns {
			row.Cells[i] = Cell{
				Key:   Text(rowKey) + "-" + column.key(i),
				Value: column.cell(rowKey, record, index),
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (c Column) key(position int) string {
	if c.Kind == FieldColumn {
		return c.FieldName
	}
	return "col" + strconv.Itoa(position)
}

func (c Column) cell(rowKey any, record object.Mapping, index int) any {
	switch c.Kind {
	case FieldColumn:
		return record[c.FieldName]
	case ComputedColumn:
		if c.Render == nil {
			return nil
		}
		return c.Render(rowKey, record, index)
	}
	return nil
}

// Text formats a cell value for plain text output.
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns every row's cells as text.
func (t Table) Strings() [][]string {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = Text(cell.Value)
		}
		rows[i] = cells
	}
	return rows
}

func (t Table) Labels() []string {
	labels := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		labels[i] = h.Label
	}
	return labels
}
