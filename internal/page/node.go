// Package page provides the display node tree and the static pages of the flakestry front-end
package page

import (
	"strings"
)

// Kind identifies what a display node represents
type Kind int

const (
	KindContainer Kind = iota // structural element (nav, div, main, ul, li, h1, p, ...)
	KindLink                  // <a href>
	KindText                  // text content, no tag
	KindInput                 // <input>
	KindButton                // <button>
	KindImage                 // <img>
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindLink:
		return "link"
	case KindText:
		return "text"
	case KindInput:
		return "input"
	case KindButton:
		return "button"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Attr is a single static attribute of a node
type Attr struct {
	Key string
	Val string
}

// Node is an immutable display node. The zero value is an empty text node.
// Fields are unexported so a tree cannot be changed once built;
// accessors hand out copies.
type Node struct {
	kind     Kind
	tag      string
	text     string
	attrs    []Attr
	children []Node
}

// El builds a container element with the given tag, attributes and children
func El(tag string, attrs []Attr, children ...Node) Node {
	return newNode(KindContainer, tag, attrs, children)
}

// Text builds a text node
func Text(s string) Node {
	return Node{kind: KindText, text: s}
}

// Link builds an <a> element pointing at href
func Link(href, class string, children ...Node) Node {
	return newNode(KindLink, "a", withClass([]Attr{{Key: "href", Val: href}}, class), children)
}

// Image builds an <img> element
func Image(src, alt, class string) Node {
	return newNode(KindImage, "img", withClass([]Attr{{Key: "src", Val: src}, {Key: "alt", Val: alt}}, class), nil)
}

// Input builds an <input> element of the given type
func Input(inputType, placeholder, class string) Node {
	attrs := []Attr{{Key: "type", Val: inputType}}
	if placeholder != "" {
		attrs = append(attrs, Attr{Key: "placeholder", Val: placeholder})
	}
	return newNode(KindInput, "input", withClass(attrs, class), nil)
}

// Button builds a plain <button type="button"> with a text label
func Button(label, class string) Node {
	return newNode(KindButton, "button", withClass([]Attr{{Key: "type", Val: "button"}}, class), []Node{Text(label)})
}

// Class is a shorthand for a single class attribute
func Class(class string) []Attr {
	return withClass(nil, class)
}

func withClass(attrs []Attr, class string) []Attr {
	if class == "" {
		return attrs
	}
	return append(attrs, Attr{Key: "class", Val: class})
}

func newNode(kind Kind, tag string, attrs []Attr, children []Node) Node {
	n := Node{kind: kind, tag: tag}
	if len(attrs) > 0 {
		n.attrs = append([]Attr(nil), attrs...)
	}
	if len(children) > 0 {
		n.children = append([]Node(nil), children...)
	}
	return n
}

// Kind returns the node kind
func (n Node) Kind() Kind { return n.kind }

// Tag returns the HTML tag name, empty for text nodes
func (n Node) Tag() string { return n.tag }

// Attr returns the value of attribute key and whether it is set
func (n Node) Attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns a copy of the node attributes in declaration order
func (n Node) Attrs() []Attr {
	return append([]Attr(nil), n.attrs...)
}

// Children returns a copy of the ordered child list
func (n Node) Children() []Node {
	return append([]Node(nil), n.children...)
}

// Text returns the concatenated text content of the node and its descendants
func (n Node) Text() string {
	if n.kind == KindText {
		return n.text
	}
	var sb strings.Builder
	n.walk(func(c Node) {
		if c.kind == KindText {
			sb.WriteString(c.text)
		}
	})
	return sb.String()
}

// Find returns all descendants (including n itself) matching pred, in document order
func (n Node) Find(pred func(Node) bool) []Node {
	var found []Node
	n.walk(func(c Node) {
		if pred(c) {
			found = append(found, c)
		}
	})
	return found
}

// FindKind returns all nodes of kind k in document order
func (n Node) FindKind(k Kind) []Node {
	return n.Find(func(c Node) bool { return c.kind == k })
}

// FindTag returns all elements with the given tag in document order
func (n Node) FindTag(tag string) []Node {
	return n.Find(func(c Node) bool { return c.kind != KindText && c.tag == tag })
}

func (n Node) walk(fn func(Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}
