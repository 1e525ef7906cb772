package render

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableSink collects rows for a terminal table.
type TableSink struct {
	w    io.Writer
	rows [][]string
}

func NewTableSink(w io.Writer) *TableSink {
	return &TableSink{w: w}
}

func (s *TableSink) AppendRow(cells []Cell) error {
	row := make([]string, 0, NumColumns)
	for _, c := range cells {
		row = append(row, c.Text)
		for i := 1; i < c.ColSpan; i++ {
			row = append(row, "")
		}
	}
	s.rows = append(s.rows, row)
	return nil
}

// Render writes the collected rows under the results header.
func (s *TableSink) Render() error {
	table := tablewriter.NewWriter(s.w)
	table.Header([]string{"Scope", "Language", "WER", "CER", "Utterances"})
	for _, row := range s.rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
