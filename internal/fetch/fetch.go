package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"briefgen/internal/core"
	"briefgen/internal/logger"
)

const (
	// DefaultUserAgent mimics a desktop browser; many sites reject bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes = 100000
	// DefaultMaxTextChars caps the cleaned text handed to callers.
	DefaultMaxTextChars = 10000
)

// mainContentSelectors are tried in order; the first match with text wins.
var mainContentSelectors = []string{
	"main",
	"article",
	"[role='main']",
	".main-content",
	"#main-content",
	".content",
	"#content",
	".post-content",
	".entry-content",
}

// Config controls scraping limits.
type Config struct {
	Timeout             time.Duration
	UserAgent           string
	MaxBodyBytes        int64
	MaxTextChars        int
	ReadabilityFallback bool
}

// DefaultConfig returns the stock scraping limits.
func DefaultConfig() Config {
	return Config{
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgent,
		MaxBodyBytes:        DefaultMaxBodyBytes,
		MaxTextChars:        DefaultMaxTextChars,
		ReadabilityFallback: true,
	}
}

// Scraper fetches a page once and reduces it to readable text.
type Scraper struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// NewScraper creates a scraper. Zero-valued limits take their defaults.
func NewScraper(cfg Config, log *slog.Logger) *Scraper {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = def.MaxTextChars
	}
	if log == nil {
		log = logger.Get()
	}
	return &Scraper{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With("component", "scraper"),
	}
}

// ValidateURL accepts only absolute http(s) URLs with a host.
func ValidateURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidURL, rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s: scheme must be http or https", core.ErrInvalidURL, rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: %s: missing host", core.ErrInvalidURL, rawURL)
	}
	return parsed, nil
}

// Scrape fetches rawURL and returns its title and cleaned main text.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (core.ScrapedPage, error) {
	parsed, err := ValidateURL(rawURL)
	if err != nil {
		return core.ScrapedPage{}, err
	}

	body, err := s.fetch(ctx, parsed.String())
	if err != nil {
		return core.ScrapedPage{}, err
	}

	page, err := s.extract(body, parsed)
	if err != nil {
		return core.ScrapedPage{}, err
	}
	s.log.Info("Scraped page", "url", page.URL, "title", page.Title, "chars", len(page.Text))
	return page, nil
}

func (s *Scraper) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrScrape, target, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrScrape, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: status code %d", core.ErrScrape, target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body from %s: %w", core.ErrScrape, target, err)
	}
	return body, nil
}

func (s *Scraper) extract(body []byte, pageURL *url.URL) (core.ScrapedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return core.ScrapedPage{}, fmt.Errorf("%w: failed to parse HTML from %s: %w", core.ErrScrape, pageURL, err)
	}

	title := extractTitle(doc)
	doc.Find("script, style").Remove()

	text, how := extractMainContent(doc)
	if how == "" && s.cfg.ReadabilityFallback {
		if rtitle, rtext, ok := readabilityText(body, pageURL); ok {
			text, how = rtext, "readability"
			if title == "" {
				title = rtitle
			}
		}
	}
	if how == "" {
		text = bodyText(doc)
		how = "body"
	}
	s.log.Debug("Extracted main content", "url", pageURL.String(), "method", how)

	return core.ScrapedPage{
		URL:   pageURL.String(),
		Title: title,
		Text:  Truncate(CleanText(text), s.cfg.MaxTextChars),
	}, nil
}

// extractMainContent returns the text of the first selector match that has
// any, along with the selector used. An empty selector means none matched.
func extractMainContent(doc *goquery.Document) (string, string) {
	for _, selector := range mainContentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := sel.Text(); strings.TrimSpace(text) != "" {
			return text, selector
		}
	}
	return "", ""
}

func bodyText(doc *goquery.Document) string {
	if body := doc.Find("body"); body.Length() > 0 {
		return body.Text()
	}
	return doc.Text()
}

// readabilityText runs the readability extractor over the raw page.
func readabilityText(body []byte, pageURL *url.URL) (string, string, bool) {
	rp := readability.NewParser()
	article, err := rp.Parse(bytes.NewReader(body), pageURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return "", "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", "", false
	}
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return "", "", false
	}
	return strings.TrimSpace(article.Title), text, true
}

// extractTitle tries <title>, then og:title, then the first h1.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		return title
	}

	if ogTitle, _ := doc.Find("meta[property='og:title']").Attr("content"); strings.TrimSpace(ogTitle) != "" {
		return strings.TrimSpace(ogTitle)
	}

	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// CleanText trims every line, breaks lines on runs of two spaces and joins
// the non-empty phrases with single spaces.
func CleanText(text string) string {
	var phrases []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				phrases = append(phrases, phrase)
			}
		}
	}
	return strings.Join(phrases, " ")
}

// Truncate cuts text to max runes, marking the cut with "...".
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
