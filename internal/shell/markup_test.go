package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func TestStatusDocument(t *testing.T) {
	doc := StatusDocument("AutoUpdater Status", "Update available: 1.2.3")

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "<h3>Update available: 1.2.3</h3>")
	assert.Contains(t, doc, "<title>AutoUpdater Status</title>")
	assert.Contains(t, doc, `<meta charset="utf-8"/>`)
}

func TestStatusDocument_EscapesMessage(t *testing.T) {
	msg := `Error: <script>alert("x")</script> & more`
	doc := StatusDocument("t", msg)

	assert.NotContains(t, doc, "<script>")

	parsed, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	h3 := findElement(parsed, atom.H3)
	require.NotNil(t, h3)
	require.NotNil(t, h3.FirstChild)
	assert.Equal(t, msg, h3.FirstChild.Data)
	assert.Nil(t, findElement(parsed, atom.Script))
}
