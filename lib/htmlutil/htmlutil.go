package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"
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

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non printable characters, trims and collapses inner whitespace.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// FirstText returns the trimmed text of the first element in sel matching
// selector, and whether such an element exists.
func FirstText(sel *goquery.Selection, selector string) (string, bool) {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(found.Text()), true
}

// LastNonEmptyChildText returns the trimmed text of the last child node
// (elements and text nodes alike) of sel whose text is not blank.
func LastNonEmptyChildText(sel *goquery.Selection) string {
	children := sel.Contents().Nodes
	for i := len(children) - 1; i >= 0; i-- {
		text := strings.TrimSpace(GetText(children[i]))
		if text != "" {
			return text
		}
	}
	return ""
}

// AbsoluteURL resolves href against base and normalizes the result.
func AbsoluteURL(base *url.URL, href string) (string, error) {
	link, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return purell.NormalizeURL(
		link,
		purell.FlagsSafe|purell.FlagRemoveFragment,
	), nil
}
