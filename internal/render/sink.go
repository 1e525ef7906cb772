// Package render turns results into table rows and appends them to an output sink.
package render

import (
	"github.com/suman-15/whisper-asr-multilang/internal/format"
	"github.com/suman-15/whisper-asr-multilang/internal/results"
)

// NumColumns is the width of a results row.
const NumColumns = 5

// Cell is one table cell. Text is always treated as plain text.
type Cell struct {
	Text    string
	ColSpan int
}

// Sink receives rendered rows in order.
type Sink interface {
	AppendRow(cells []Cell) error
}

// Cells returns the row for r: scope, language, WER, CER and utterance count.
// A rate the line did not supply stays empty rather than reading as 0.00%.
func Cells(r results.Result) []Cell {
	return []Cell{
		{Text: r.Scope},
		{Text: r.Lang},
		percentCell(r, results.ColWER, r.WER),
		percentCell(r, results.ColCER, r.CER),
		{Text: r.NumUtts},
	}
}

func percentCell(r results.Result, col, v string) Cell {
	if !r.Has(col) {
		return Cell{}
	}
	return Cell{Text: format.Percent(v)}
}

func AddRow(sink Sink, r results.Result) error {
	return sink.AppendRow(Cells(r))
}

// AddFallbackRow appends a single cell spanning the whole row.
func AddFallbackRow(sink Sink, message string) error {
	return sink.AppendRow([]Cell{{Text: message, ColSpan: NumColumns}})
}
