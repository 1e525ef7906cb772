package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTableBodyID is the id of the element rows are appended to.
const DefaultTableBodyID = "tbody"

//go:embed page.html
var defaultPage []byte

// ErrNoTableBody is returned when the page has no element with the table body id.
var ErrNoTableBody = errors.New("table body element not found")

// DefaultPage returns the built-in hosting page.
func DefaultPage() io.Reader {
	return bytes.NewReader(defaultPage)
}

// DOMSink appends rows to an element of a parsed HTML page.
type DOMSink struct {
	doc *html.Node
	id  string
}

func NewDOMSink(page io.Reader, id string) (*DOMSink, error) {
	doc, err := html.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	if id == "" {
		id = DefaultTableBodyID
	}
	return &DOMSink{doc: doc, id: id}, nil
}

func (s *DOMSink) AppendRow(cells []Cell) error {
	body := findByID(s.doc, s.id)
	if body == nil {
		return fmt.Errorf("%w: #%s", ErrNoTableBody, s.id)
	}
	tr := &html.Node{Type: html.ElementNode, Data: "tr", DataAtom: atom.Tr}
	for _, c := range cells {
		td := &html.Node{Type: html.ElementNode, Data: "td", DataAtom: atom.Td}
		if c.ColSpan > 1 {
			td.Attr = append(td.Attr, html.Attribute{Key: "colspan", Val: strconv.Itoa(c.ColSpan)})
		}
		td.AppendChild(&html.Node{Type: html.TextNode, Data: c.Text})
		tr.AppendChild(td)
	}
	body.AppendChild(tr)
	return nil
}

// Render writes the page, including appended rows.
func (s *DOMSink) Render(w io.Writer) error {
	return html.Render(w, s.doc)
}

// TableBody returns the element rows are appended to, or nil.
func (s *DOMSink) TableBody() *html.Node {
	return findByID(s.doc, s.id)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
