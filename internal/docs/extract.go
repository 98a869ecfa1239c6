package docs

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Page is the readable content of one documentation page.
type Page struct {
	URL       string
	Framework string
	Title     string
	Text      string
}

// ExtractContent turns raw HTML into readable text. Readability handles the
// heavy lifting; pages it cannot parse (heavily scripted doc sites) fall
// back to a stripped-DOM extraction.
func ExtractContent(html []byte, pageURL *url.URL) (title, text string, err error) {
	article, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.Title), normalizeWhitespace(article.TextContent), nil
	}

	title, text, fallbackErr := extractWithGoquery(html)
	if fallbackErr != nil {
		return "", "", fmt.Errorf("extracting %s: %w", pageURL, fallbackErr)
	}
	return title, text, nil
}

// extractWithGoquery strips non-content elements and returns the page text.
func extractWithGoquery(html []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("parsing HTML: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	// Prefer the content landmark when the page has one.
	content := doc.Find("main, article").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	return title, normalizeWhitespace(content.Text()), nil
}

// normalizeWhitespace collapses runs of blank lines and trims each line,
// preserving paragraph breaks for the splitter.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	// Rejoin with single newlines; consecutive paragraphs are separated by
	// one empty line, which Split sees as "\n\n".
	return strings.TrimSpace(strings.Join(out, "\n"))
}
