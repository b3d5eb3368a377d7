package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

const maxScrapedChars = 200000

var skippedTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"header":   {},
	"nav":      {},
	"footer":   {},
	"aside":    {},
}

// FetchPageText downloads a page and extracts its visible text. Chrome
// tags (navigation, headers, scripts) are dropped, whitespace is
// collapsed, and the output is capped at 200000 characters.
func FetchPageText(ctx context.Context, client *http.Client, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; localagent/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("parse %s: %w", url, err)
	}
	return ExtractVisibleText(doc), resp.StatusCode, nil
}

// ExtractVisibleText walks a parsed document collecting text nodes
// outside skipped tags.
func ExtractVisibleText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skippedTags[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return firstRunes(strings.Join(strings.Fields(sb.String()), " "), maxScrapedChars)
}
