package page

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ToHTML converts the node and its subtree into an x/net/html node tree
func (n Node) ToHTML() *html.Node {
	if n.kind == KindText {
		return &html.Node{Type: html.TextNode, Data: n.text}
	}
	hn := newElement(n.tag, n.attrs...)
	for _, c := range n.children {
		hn.AppendChild(c.ToHTML())
	}
	return hn
}

// Document builds the full HTML5 document tree for p
func Document(p Page) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := newElement("html", Attr{Key: "lang", Val: "en"})
	doc.AppendChild(root)

	head := newElement("head")
	head.AppendChild(newElement("meta", Attr{Key: "charset", Val: "utf-8"}))
	head.AppendChild(newElement("meta",
		Attr{Key: "name", Val: "viewport"},
		Attr{Key: "content", Val: "width=device-width, initial-scale=1"}))
	title := newElement("title")
	title.AppendChild(&html.Node{Type: html.TextNode, Data: p.Title})
	head.AppendChild(title)
	root.AppendChild(head)

	body := newElement("body")
	for _, region := range p.Body {
		body.AppendChild(region.ToHTML())
	}
	root.AppendChild(body)
	return doc
}

// Render writes p as an HTML5 document to w
func Render(w io.Writer, p Page) error {
	if err := html.Render(w, Document(p)); err != nil {
		return fmt.Errorf("render page %q: %w", p.Title, err)
	}
	return nil
}

// RenderString renders p into a string
func RenderString(p Page) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newElement(tag string, attrs ...Attr) *html.Node {
	hn := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for _, a := range attrs {
		hn.Attr = append(hn.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	return hn
}
