package shell

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StatusDocument returns a complete HTML page showing message as an <h3>.
// The message is inserted as a text node, so markup in it is escaped.
func StatusDocument(title, message string) string {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	root.AppendChild(head)

	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)

	titleNode := element(atom.Title)
	titleNode.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.AppendChild(titleNode)

	body := element(atom.Body)
	root.AppendChild(body)

	h3 := element(atom.H3)
	h3.AppendChild(&html.Node{Type: html.TextNode, Data: message})
	body.AppendChild(h3)

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return "<h3>" + html.EscapeString(message) + "</h3>"
	}
	return b.String()
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
