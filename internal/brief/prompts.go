package brief

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"briefgen/internal/core"
)

// SystemInstruction frames every brief request.
const SystemInstruction = "You are an expert content strategist and SEO specialist. Generate comprehensive content briefs in valid JSON format. Always respond with properly formatted JSON only, no additional text."

// CreateBriefSchema returns the Gemini response_schema for content briefs
func CreateBriefSchema() *genai.Schema {
	stringList := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: desc,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "SEO-optimized title including the main keyword",
			},
			"meta_description": {
				Type:        genai.TypeString,
				Description: "Compelling meta description (max 155 characters)",
			},
			"outline": {
				Type:        genai.TypeArray,
				Description: "3-5 main sections of the article",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"heading":   {Type: genai.TypeString, Description: "Main section heading (H2)"},
						"subpoints": stringList("Key points the section covers"),
					},
					Required: []string{"heading", "subpoints"},
				},
			},
			"key_points": stringList("Important concepts the article must convey"),
			"recommendations": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"tone":  {Type: genai.TypeString, Description: "Specific tone guidance"},
					"style": {Type: genai.TypeString, Description: "Writing style recommendations"},
				},
				Required: []string{"tone", "style"},
			},
		},
		Required: []string{"title", "meta_description", "outline", "key_points", "recommendations"},
	}
}

// BuildBriefPrompt creates the brief generation prompt. A non-empty excerpt
// of source material is appended as grounding.
func BuildBriefPrompt(req core.BriefRequest, excerpt string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`Generate a comprehensive content brief for a %s about "%s" targeting %s.
Use a %s tone.

Create a detailed content brief in JSON format with the following structure:
{
    "title": "SEO-optimized title including the main keyword",
    "meta_description": "Compelling meta description (max 155 characters)",
    "outline": [
        {
            "heading": "Main section heading (H2)",
            "subpoints": ["Key point 1", "Key point 2", "Key point 3"]
        }
    ],
    "key_points": ["Important concept 1", "Important concept 2", "Important concept 3", "Important concept 4"],
    "recommendations": {
        "tone": "Specific tone guidance",
        "style": "Writing style recommendations"
    }
}

Make sure to:
1. Include the keyword naturally in the title and throughout the outline
2. Create at least 3-5 main sections with detailed subpoints
3. Focus on providing value and answering user intent
4. Make the content comprehensive and thorough
5. Ensure all headings are engaging and descriptive
`, req.ContentType, req.Keyword, req.TargetAudience, req.Tone))

	if strings.TrimSpace(excerpt) != "" {
		sb.WriteString("\nReference material from the source page:\n")
		sb.WriteString(excerpt)
		sb.WriteString("\n\nBase the outline on what this material actually covers.\n")
	}

	sb.WriteString("\nImportant: Return ONLY valid JSON, no markdown formatting or additional text.")
	return sb.String()
}
