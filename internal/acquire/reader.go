package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

const (
	readerTimeout   = 30 * time.Second
	readerUserAgent = "RecipeMe/1.0 (+https://github.com/Tormknd/RecipeMe)"

	// MaxContentChars bounds the text handed to the generative model.
	MaxContentChars = 20000
)

// Noise elements removed before reduction; they carry no recipe content.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header", "aside",
	"iframe", "svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement", ".cookie-banner",
}

// Reader reduces a generic web page to readable plain text: fetch the HTML,
// strip noise, keep the main content container, convert to Markdown and
// truncate to the model input budget.
type Reader struct {
	http *http.Client
}

// NewReader creates a Reader with a sensible timeout.
func NewReader() *Reader {
	return &Reader{http: &http.Client{Timeout: readerTimeout}}
}

// Reduce fetches url and returns its readable text, truncated to
// MaxContentChars.
func (r *Reader) Reduce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", readerUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	content, err := extractMainContent(string(body))
	if err != nil {
		return "", err
	}

	markdown, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return Truncate(strings.TrimSpace(markdown), MaxContentChars), nil
}

// extractMainContent strips noise elements and returns the best content
// container in priority order: <main>, then <article>, then <body>.
func extractMainContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		if sel := doc.Find(tag); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return "", fmt.Errorf("no content container found in HTML")
	}

	result, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return result, nil
}

// Truncate cuts s to at most max runes without splitting a character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
