package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMarkdownContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name: "markdown links",
			content: `# References
- [Starter guide](https://example.com/starter)
- [Flour types](https://example.com/flour)`,
			expected: []string{
				"https://example.com/starter",
				"https://example.com/flour",
			},
		},
		{
			name: "raw URLs",
			content: `Notes
- https://example.com/starter
see also https://example.com/flour`,
			expected: []string{
				"https://example.com/starter",
				"https://example.com/flour",
			},
		},
		{
			name: "markdown link wins over raw URL on the same line",
			content: `[guide](https://example.com/guide) https://example.com/ignored`,
			expected: []string{
				"https://example.com/guide",
			},
		},
		{
			name: "duplicates after normalization",
			content: `- https://example.com/starter?utm_source=newsletter
- https://example.com/starter/
- [again](https://example.com/starter#feeding)`,
			expected: []string{
				"https://example.com/starter",
			},
		},
		{
			name:     "no URLs",
			content:  "Just some text without any links.",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls := ParseMarkdownContent(tt.content)

			if len(urls) != len(tt.expected) {
				t.Fatalf("Expected %d URLs, got %d: %v", len(tt.expected), len(urls), urls)
			}
			for i, expected := range tt.expected {
				if urls[i] != expected {
					t.Errorf("Expected URL[%d] = %s, got %s", i, expected, urls[i])
				}
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "remove utm parameters",
			input:    "https://example.com/article?utm_source=twitter&utm_campaign=promo",
			expected: "https://example.com/article",
		},
		{
			name:     "keep query parameters that aren't tracking",
			input:    "https://example.com/search?q=golang&page=2",
			expected: "https://example.com/search?page=2&q=golang",
		},
		{
			name:     "remove fragment",
			input:    "https://example.com/article#section-1",
			expected: "https://example.com/article",
		},
		{
			name:     "remove trailing slash",
			input:    "https://example.com/article/",
			expected: "https://example.com/article",
		},
		{
			name:     "keep root trailing slash",
			input:    "https://example.com/",
			expected: "https://example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseReferenceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.md")
	if err := os.WriteFile(path, []byte("- https://example.com/a\n- ftp://example.com/b\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	urls, err := ParseReferenceFile(path)
	if err != nil {
		t.Fatalf("ParseReferenceFile failed: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://example.com/a" {
		t.Errorf("Expected only the http URL, got %v", urls)
	}

	if _, err := ParseReferenceFile(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
