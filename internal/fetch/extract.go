package fetch

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WikitextFieldID is the id of the edit form's textarea.
const WikitextFieldID = "wpTextbox1"

// ErrNoWikitext is returned when an edit page has no wikitext textarea.
var ErrNoWikitext = errors.New("no wikitext textarea in page")

// ExtractWikitext returns the decoded contents of the edit form's
// <textarea id="wpTextbox1">.
func ExtractWikitext(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	area := findTextarea(doc)
	if area == nil {
		return "", ErrNoWikitext
	}

	var b strings.Builder
	for c := area.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String(), nil
}

func findTextarea(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Textarea {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == WikitextFieldID {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTextarea(c); found != nil {
			return found
		}
	}
	return nil
}
