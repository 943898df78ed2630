package htmlutil

import (
	"bytes"
	"net/url"
	"policevideos/lib/textutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// TextNodes returns the text nodes found under node in document order,
// whitespace-only nodes (usually template indentation) are skipped and the
// rest are trimmed.
func TextNodes(node *html.Node) []string {
	var out []string
	collectTextNodes(node, &out)
	return out
}

func collectTextNodes(node *html.Node, out *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		text := strings.TrimSpace(node.Data)
		if text != "" {
			*out = append(*out, text)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextNodes(child, out)
	}
}

// FirstText returns the first non-blank text node below node, ok is false
// if node has no text descendants at all.
func FirstText(node *html.Node) (text string, ok bool) {
	text, ok = FirstTextNode(node)
	return strings.TrimSpace(text), ok
}

// FirstTextNode is FirstText without trimming, surrounding whitespace is
// returned as it appears in the markup.
func FirstTextNode(node *html.Node) (text string, ok bool) {
	if node == nil {
		return "", false
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			if strings.TrimSpace(child.Data) != "" {
				return child.Data, true
			}
			continue
		}
		text, ok = FirstTextNode(child)
		if ok {
			return text, true
		}
	}
	return "", false
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors reads every node in sel as an anchor, nodes whose href is not
// a valid url are skipped.
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}

		anchors = append(anchors, Anchor{
			Name: textutil.NormalizeSpace(GetText(n)),
			Href: link.String(),
		})
	}

	return anchors
}
