package csv

import (
	"io"
)

var bom = []byte{0xef, 0xbb, 0xbf}

func Read(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}
