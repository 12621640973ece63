package opencorporates

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CSS selectors of the site's markup.
const (
	resultBlockSelector = ".company"
	resultLinkSelector  = ".company_search_result"
	ownerBlockSelector  = ".attribute_item"
)

var (
	resultBlockMatcher = cascadia.MustCompile(resultBlockSelector)
	resultLinkMatcher  = cascadia.MustCompile(resultLinkSelector)
	ownerBlockMatcher  = cascadia.MustCompile(ownerBlockSelector)

	reDigits = regexp.MustCompile(`\p{Nd}+`)
)

// ResultBlock is one entry of the search results listing.
type ResultBlock struct {
	// Text is the block's display text.
	Text string

	// Href is the link into the company page; empty when the block has
	// no result link.
	Href string
}

// ParseResults extracts the result blocks of a search page, in page order.
func ParseResults(rawHTML string) ([]ResultBlock, error) {
	doc, err := parseDocument(rawHTML)
	if err != nil {
		return nil, err
	}

	var blocks []ResultBlock
	doc.FindMatcher(resultBlockMatcher).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.FindMatcher(resultLinkMatcher).First().Attr("href")
		blocks = append(blocks, ResultBlock{
			Text: blockText(s.Nodes[0]),
			Href: strings.TrimSpace(href),
		})
	})
	return blocks, nil
}

// ParseOwners extracts the text of every owner block on a company page.
func ParseOwners(rawHTML string) ([]string, error) {
	doc, err := parseDocument(rawHTML)
	if err != nil {
		return nil, err
	}

	var owners []string
	doc.FindMatcher(ownerBlockMatcher).Each(func(_ int, s *goquery.Selection) {
		owners = append(owners, blockText(s.Nodes[0]))
	})
	return owners, nil
}

// CleanOwners joins owner blocks with newlines and strips every decimal
// digit, in any script.
func CleanOwners(blocks []string) string {
	joined := strings.Join(blocks, "\n")
	return strings.TrimSpace(reDigits.ReplaceAllString(joined, ""))
}

func parseDocument(rawHTML string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// blockElements start a new line in rendered text.
var blockElements = map[atom.Atom]bool{
	atom.Div: true, atom.P: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Tr: true, atom.Table: true,
	atom.Section: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// sourceBreaks are line breaks in the markup source, which render as spaces.
var sourceBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// blockText renders the visible text of n roughly the way a browser does:
// block elements and <br> break lines, runs of spaces collapse, blank lines
// are dropped.
func blockText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(sourceBreaks.Replace(n.Data))
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.Br:
				buf.WriteByte('\n')
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			buf.WriteByte('\n')
		}
	}
	walk(n)

	lines := strings.Split(buf.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
