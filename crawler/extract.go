package crawler

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	// Static assets are never worth indexing or following.
	exclusionRegex = regexp.MustCompile(`(?i)\.(?:jpg|jpeg|png|gif|svg|webp|ico|css|js|pdf|zip|gz|tar|mp3|mp4|avi|mov|woff2?)$`)

	repeatedSpaceRegex = regexp.MustCompile(`\s+`)
)

// policyPool reuses sanitizer policies across workers; building one per page
// is measurably expensive.
var policyPool = sync.Pool{
	New: func() any {
		return bluemonday.StrictPolicy()
	},
}

// Page is the parsed content of a fetched document.
type Page struct {
	Title string
	Text  string
	Links []string
}

// ParsePage extracts the title, visible text, and followable outbound links
// from an HTML body. Links are resolved against base, stripped of fragments,
// and filtered: only http(s), no rel=nofollow, no static assets.
func ParsePage(base *url.URL, body []byte) (*Page, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	page := &Page{Text: extractText(body)}

	seen := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.Title == "" {
					page.Title = cleanFragment(textContent(n))
				}
			case "base":
				if href := attrValue(n, "href"); href != "" {
					if resolved, err := url.Parse(href); err == nil {
						base = base.ResolveReference(resolved)
					}
				}
			case "a":
				if link := resolveLink(base, n); link != "" {
					if _, dup := seen[link]; !dup {
						seen[link] = struct{}{}
						page.Links = append(page.Links, link)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return page, nil
}

func resolveLink(base *url.URL, n *html.Node) string {
	href := attrValue(n, "href")
	if href == "" {
		return ""
	}
	if strings.Contains(attrValue(n, "rel"), "nofollow") {
		return ""
	}
	target, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(target)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	link := resolved.String()
	if exclusionRegex.MatchString(resolved.Path) {
		return ""
	}
	return link
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// extractText strips all markup from the body and collapses whitespace.
func extractText(body []byte) string {
	policy := policyPool.Get().(*bluemonday.Policy)
	defer policyPool.Put(policy)
	return cleanFragment(string(policy.SanitizeBytes(body)))
}

func cleanFragment(s string) string {
	return strings.TrimSpace(stdhtml.UnescapeString(repeatedSpaceRegex.ReplaceAllString(s, " ")))
}

// excerpt returns the first limit runes of text, for snippet generation.
func excerpt(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
