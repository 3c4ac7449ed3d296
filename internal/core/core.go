package core

import "time"

// OutlineItem is one body section of a brief.
type OutlineItem struct {
	Heading   string   `json:"heading" yaml:"heading"`     // Section heading
	Subpoints []string `json:"subpoints" yaml:"subpoints"` // Points the section should cover
}

// Recommendations carries tone and style guidance for the writer.
type Recommendations struct {
	Tone           string `json:"tone" yaml:"tone"`                                             // e.g. "professional"
	Style          string `json:"style" yaml:"style"`                                           // e.g. "informative"
	TargetAudience string `json:"target_audience,omitempty" yaml:"target_audience,omitempty"` // Optional, defaults to "general audience"
}

// Audience returns the target audience, falling back to DefaultAudience.
func (r Recommendations) Audience() string {
	if r.TargetAudience == "" {
		return DefaultAudience
	}
	return r.TargetAudience
}

// Brief is a structured plan for an article. It is validated once at the
// boundary and passed by value through generation.
type Brief struct {
	Title           string          `json:"title" yaml:"title"`
	MetaDescription string          `json:"meta_description" yaml:"meta_description"`
	Outline         []OutlineItem   `json:"outline" yaml:"outline"`
	KeyPoints       []string        `json:"key_points" yaml:"key_points"`
	Recommendations Recommendations `json:"recommendations" yaml:"recommendations"`
}

// BriefRequest is the input to brief generation.
type BriefRequest struct {
	Keyword        string `json:"keyword"`                   // Required
	ContentType    string `json:"content_type"`              // Defaults to "blog"
	Tone           string `json:"tone"`                      // Defaults to "professional"
	TargetAudience string `json:"target_audience"`           // Defaults to "general audience"
	ScrapedContent string `json:"scraped_content,omitempty"` // Optional reference material
	SourceURL      string `json:"source_url,omitempty"`      // Where ScrapedContent came from
}

// WithDefaults fills unset optional fields.
func (r BriefRequest) WithDefaults() BriefRequest {
	if r.ContentType == "" {
		r.ContentType = DefaultContentType
	}
	if r.Tone == "" {
		r.Tone = DefaultTone
	}
	if r.TargetAudience == "" {
		r.TargetAudience = DefaultAudience
	}
	return r
}

// Article is a fully assembled markdown article.
type Article struct {
	Title       string `json:"title" yaml:"title"`
	Content     string `json:"content" yaml:"content"`
	WordCount   int    `json:"word_count" yaml:"word_count"`
	Sections    int    `json:"sections" yaml:"sections"` // Outline length + introduction + conclusion
	ContentHTML string `json:"content_html,omitempty" yaml:"content_html,omitempty"`
}

// ScrapedPage is the cleaned result of fetching a URL.
type ScrapedPage struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Analysis is the keyword and audience inferred from scraped content.
type Analysis struct {
	Keyword        string `json:"keyword" yaml:"keyword"`
	TargetAudience string `json:"target_audience" yaml:"target_audience"`
	ContentType    string `json:"content_type" yaml:"content_type"`       // Always "blog"
	Tone           string `json:"tone" yaml:"tone"`                       // Always "casual"
	ScrapedContent string `json:"scraped_content" yaml:"scraped_content"` // Cleaned page text
}

// Chunk is a slice of an ingested document.
type Chunk struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"` // Position within its ingest call, from 0
}

// RetrievedChunk is a chunk returned from a similarity query.
type RetrievedChunk struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"` // 1 / (1 + L2 distance), in (0, 1]
}

// IndexStats summarizes the retrieval index.
type IndexStats struct {
	Records   int      `json:"records"`
	Sources   []string `json:"sources"`
	Dimension int      `json:"dimension"`
}

// SavedArticle is a generated article persisted to history.
type SavedArticle struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Keyword        string    `json:"keyword"`
	ContentType    string    `json:"content_type"`
	Tone           string    `json:"tone"`
	TargetAudience string    `json:"target_audience"`
	WordCount      int       `json:"word_count"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	DefaultContentType = "blog"
	DefaultTone        = "professional"
	DefaultAudience    = "general audience"
	DefaultStyle       = "informative"
)
