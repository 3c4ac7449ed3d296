package brief

import (
	"fmt"
	"strings"

	"briefgen/internal/core"
)

const (
	maxMetaDescription     = 160
	truncatedMetaKeepChars = 155
)

var requiredFields = []string{"title", "meta_description", "outline", "key_points", "recommendations"}

// Validate turns decoded brief JSON into a Brief.
//
// Every required field must be present. A meta description longer than 160
// characters is cut to 155 plus "...". Outline entries that are not objects
// with a heading and a subpoints list are dropped. Recommendations that are not an object are
// replaced with the professional/informative defaults.
func Validate(data map[string]any) (core.Brief, error) {
	for _, field := range requiredFields {
		if _, ok := data[field]; !ok {
			return core.Brief{}, fmt.Errorf("%w: %s", core.ErrMissingField, field)
		}
	}

	title, ok := data["title"].(string)
	if !ok {
		return core.Brief{}, fmt.Errorf("%w: title must be a string", core.ErrMalformedJSON)
	}
	meta, ok := data["meta_description"].(string)
	if !ok {
		return core.Brief{}, fmt.Errorf("%w: meta_description must be a string", core.ErrMalformedJSON)
	}
	keyPoints, ok := stringList(data["key_points"])
	if !ok {
		return core.Brief{}, fmt.Errorf("%w: key_points must be a list", core.ErrMalformedJSON)
	}

	return core.Brief{
		Title:           title,
		MetaDescription: TruncateMetaDescription(meta),
		Outline:         outline(data["outline"]),
		KeyPoints:       keyPoints,
		Recommendations: recommendations(data["recommendations"]),
	}, nil
}

// Normalize applies the same rules as Validate to an already typed brief.
func Normalize(b core.Brief) core.Brief {
	b.MetaDescription = TruncateMetaDescription(b.MetaDescription)
	items := make([]core.OutlineItem, 0, len(b.Outline))
	for _, item := range b.Outline {
		if item.Subpoints == nil {
			item.Subpoints = []string{}
		}
		items = append(items, item)
	}
	b.Outline = items
	if b.KeyPoints == nil {
		b.KeyPoints = []string{}
	}
	if b.Recommendations.Tone == "" {
		b.Recommendations.Tone = core.DefaultTone
	}
	if b.Recommendations.Style == "" {
		b.Recommendations.Style = core.DefaultStyle
	}
	return b
}

// TruncateMetaDescription enforces the meta description length limit.
func TruncateMetaDescription(meta string) string {
	runes := []rune(meta)
	if len(runes) <= maxMetaDescription {
		return meta
	}
	return string(runes[:truncatedMetaKeepChars]) + "..."
}

func outline(v any) []core.OutlineItem {
	items := []core.OutlineItem{}
	list, ok := v.([]any)
	if !ok {
		return items
	}
	for _, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		heading, hasHeading := entry["heading"]
		subpoints, hasSubpoints := entry["subpoints"]
		if !hasHeading || !hasSubpoints {
			continue
		}
		headingText, ok := heading.(string)
		if !ok {
			continue
		}
		points, ok := stringList(subpoints)
		if !ok {
			continue
		}
		items = append(items, core.OutlineItem{Heading: headingText, Subpoints: points})
	}
	return items
}

func recommendations(v any) core.Recommendations {
	rec := core.Recommendations{Tone: core.DefaultTone, Style: core.DefaultStyle}
	m, ok := v.(map[string]any)
	if !ok {
		return rec
	}
	if tone, ok := m["tone"].(string); ok && strings.TrimSpace(tone) != "" {
		rec.Tone = tone
	}
	if style, ok := m["style"].(string); ok && strings.TrimSpace(style) != "" {
		rec.Style = style
	}
	if audience, ok := m["target_audience"].(string); ok {
		rec.TargetAudience = audience
	}
	return rec
}

// stringList accepts a JSON array, keeping its string elements.
func stringList(v any) ([]string, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
