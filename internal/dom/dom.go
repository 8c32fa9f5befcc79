package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is a single element in a parsed document.
type Node interface {
	// Tag returns the lowercase element name.
	Tag() string
	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)
	// Text returns the combined text of the node and all its descendants.
	// Text from different elements is separated by a newline after
	// block-level elements and a space otherwise, so adjacent elements never
	// run together.
	Text() string
	// OwnText returns only the text nodes that are direct children.
	OwnText() string
	// Find returns descendants matching a CSS selector in document order.
	// An invalid selector matches nothing.
	Find(selector string) []Node
	// Is reports whether the node itself matches a CSS selector.
	Is(selector string) bool
	// Closest returns the nearest ancestor-or-self matching selector.
	Closest(selector string) (Node, bool)
	// Parent returns the parent element, if any.
	Parent() (Node, bool)
	// Children returns the element children.
	Children() []Node
	// Key identifies the underlying element; equal keys mean the same element.
	Key() any
}

// Document is a parsed HTML page.
type Document interface {
	// Find returns elements matching a CSS selector in document order.
	Find(selector string) []Node
	// Body returns the body element.
	Body() (Node, bool)
}

// Parse reads and parses an HTML document. The HTML5 parsing algorithm
// recovers from nearly all malformed markup, so an error here means the
// reader itself failed.
func Parse(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &document{doc: doc}, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (Document, error) {
	return Parse(strings.NewReader(s))
}

type document struct {
	doc *goquery.Document
}

func (d *document) Find(selector string) []Node {
	return wrap(d.doc.Find(selector))
}

func (d *document) Body() (Node, bool) {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return nil, false
	}
	return &node{sel: body}, true
}

type node struct {
	sel *goquery.Selection
}

func wrap(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &node{sel: s})
	})
	return nodes
}

func (n *node) raw() *html.Node {
	return n.sel.Get(0)
}

func (n *node) Tag() string {
	return goquery.NodeName(n.sel)
}

func (n *node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n *node) Text() string {
	var t textWriter
	for c := n.raw().FirstChild; c != nil; c = c.NextSibling {
		t.walk(c)
	}
	return t.b.String()
}

// Inline formatting elements continue the surrounding word.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "em": true,
	"i": true, "mark": true, "q": true, "s": true, "small": true,
	"strong": true, "sub": true, "sup": true, "u": true, "wbr": true,
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

// textWriter joins text nodes, holding back the separator owed by an
// element boundary until more text arrives.
type textWriter struct {
	b       strings.Builder
	pending string
}

func (t *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return
		}
		if t.pending != "" && t.b.Len() > 0 {
			t.b.WriteString(t.pending)
		}
		t.pending = ""
		t.b.WriteString(n.Data)
		return
	case html.ElementNode:
		sep := boundary(n.Data)
		t.owe(sep)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			t.walk(c)
		}
		t.owe(sep)
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			t.walk(c)
		}
	}
}

// owe records a separator; a newline outranks a space.
func (t *textWriter) owe(sep string) {
	if sep == "\n" || (sep != "" && t.pending == "") {
		t.pending = sep
	}
}

func boundary(tag string) string {
	switch {
	case blockTags[tag]:
		return "\n"
	case inlineTags[tag]:
		return ""
	default:
		return " "
	}
}

func (n *node) OwnText() string {
	var b strings.Builder
	for c := n.raw().FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func (n *node) Find(selector string) []Node {
	return wrap(n.sel.Find(selector))
}

func (n *node) Is(selector string) bool {
	return n.sel.Is(selector)
}

func (n *node) Closest(selector string) (Node, bool) {
	c := n.sel.Closest(selector)
	if c.Length() == 0 {
		return nil, false
	}
	return &node{sel: c}, true
}

func (n *node) Parent() (Node, bool) {
	p := n.sel.Parent()
	if p.Length() == 0 || p.Get(0).Type != html.ElementNode {
		return nil, false
	}
	return &node{sel: p}, true
}

func (n *node) Children() []Node {
	return wrap(n.sel.Children())
}

func (n *node) Key() any {
	return n.raw()
}
