package csv

import (
	"errors"
	"strings"
)

// ErrEmpty is returned when the input has no header line.
var ErrEmpty = errors.New("csv: empty input")

type Table struct {
	Header  []string
	Records []Record
}

// Record is one data line keyed by the header names.
// Every record carries the full header key set; cells the line did not supply are missing.
type Record struct {
	keys   []string
	values []string
	n      int
}

func newRecord(header, cells []string) Record {
	values := make([]string, len(header))
	n := copy(values, cells)
	return Record{keys: header, values: values, n: n}
}

// Lookup returns the value for key and whether the line supplied it.
// When the header repeats a name the rightmost column wins.
func (r Record) Lookup(key string) (string, bool) {
	for i := len(r.keys) - 1; i >= 0; i-- {
		if r.keys[i] != key {
			continue
		}
		if i < r.n {
			return r.values[i], true
		}
		return "", false
	}
	return "", false
}

// Get returns the value for key, or "" when it is missing.
func (r Record) Get(key string) string {
	v, _ := r.Lookup(key)
	return v
}

func (r Record) Keys() []string {
	return r.keys
}

func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.keys))
	for _, k := range r.keys {
		m[k] = r.Get(k)
	}
	return m
}

// Parse splits text into a header line and data lines.
// Fields are separated by literal commas; quoting is not supported, so a field containing a
// comma shifts every following column of its line.
func Parse(text string) (*Table, error) {
	text = strings.TrimPrefix(text, string(bom))
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}
	lines := splitLines(text)
	header := strings.Split(lines[0], ",")
	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		records = append(records, newRecord(header, strings.Split(line, ",")))
	}
	return &Table{
		Header:  header,
		Records: records,
	}, nil
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
