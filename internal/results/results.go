// Package results holds the typed rows of the evaluation summary CSV.
package results

import "github.com/suman-15/whisper-asr-multilang/internal/csv"

// Column names written by the evaluation step.
const (
	ColScope   = "scope"
	ColLang    = "lang"
	ColWER     = "wer"
	ColCER     = "cer"
	ColNumUtts = "num_utts"
)

var columns = []string{ColScope, ColLang, ColWER, ColCER, ColNumUtts}

// Result is one summary row. Fields a line did not supply are empty and reported by Has.
type Result struct {
	Scope   string
	Lang    string
	WER     string
	CER     string
	NumUtts string

	missing uint8
}

// Has reports whether the line supplied col. An empty cell is supplied; a cell past the end of
// a short line is not.
func (r Result) Has(col string) bool {
	for i, c := range columns {
		if c == col {
			return r.missing&(1<<i) == 0
		}
	}
	return false
}

func FromRecord(r csv.Record) Result {
	res := Result{
		Scope:   r.Get(ColScope),
		Lang:    r.Get(ColLang),
		WER:     r.Get(ColWER),
		CER:     r.Get(ColCER),
		NumUtts: r.Get(ColNumUtts),
	}
	for i, c := range columns {
		if _, ok := r.Lookup(c); !ok {
			res.missing |= 1 << i
		}
	}
	return res
}

func FromTable(t *csv.Table) []Result {
	out := make([]Result, 0, len(t.Records))
	for _, r := range t.Records {
		out = append(out, FromRecord(r))
	}
	return out
}
