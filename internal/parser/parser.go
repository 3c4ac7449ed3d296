// Package parser pulls reference URLs out of markdown notes.
package parser

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"briefgen/internal/fetch"
)

var (
	// Matches markdown links: [text](url)
	markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)

	// Matches raw URLs in text
	rawURLRegex = regexp.MustCompile(`https?://[^\s)]+`)
)

// trackingParams never change page content
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid", "gclid", "msclkid",
	"ref", "source",
}

// ParseReferenceFile reads a markdown file and returns the reference URLs
// it links to.
func ParseReferenceFile(filePath string) ([]string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return ParseMarkdownContent(string(content)), nil
}

// ParseMarkdownContent extracts URLs from markdown. Markdown links win over
// raw URLs on the same line. The result is normalized, deduplicated and in
// document order.
func ParseMarkdownContent(content string) []string {
	seen := make(map[string]bool)
	urls := []string{}

	add := func(raw string) {
		if _, err := fetch.ValidateURL(raw); err != nil {
			return
		}
		normalized := NormalizeURL(raw)
		if !seen[normalized] {
			seen[normalized] = true
			urls = append(urls, normalized)
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()

		if matches := markdownLinkRegex.FindAllStringSubmatch(line, -1); len(matches) > 0 {
			for _, match := range matches {
				add(match[2])
			}
			continue
		}

		for _, raw := range rawURLRegex.FindAllString(line, -1) {
			add(raw)
		}
	}

	return urls
}

// NormalizeURL removes tracking parameters and the fragment, and trims a
// trailing slash, so one page always maps to one source key.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}
	parsed.RawQuery = query.Encode()
	parsed.Fragment = ""

	if parsed.Path != "" && parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}
