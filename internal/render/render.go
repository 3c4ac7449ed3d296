// Package render formats briefs for humans and writes generated files.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"briefgen/internal/core"
)

// RenderBriefMarkdown lays a brief out as a markdown document a writer can
// work from.
func RenderBriefMarkdown(b core.Brief) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", b.Title))
	sb.WriteString(fmt.Sprintf("> %s\n\n", b.MetaDescription))

	sb.WriteString("## Outline\n\n")
	if len(b.Outline) == 0 {
		sb.WriteString("_No sections._\n\n")
	}
	for i, item := range b.Outline {
		sb.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, item.Heading))
		for _, point := range item.Subpoints {
			sb.WriteString(fmt.Sprintf("- %s\n", point))
		}
		sb.WriteString("\n")
	}

	if len(b.KeyPoints) > 0 {
		sb.WriteString("## Key Points\n\n")
		for _, point := range b.KeyPoints {
			sb.WriteString(fmt.Sprintf("- %s\n", point))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Recommendations\n\n")
	sb.WriteString(fmt.Sprintf("**Tone:** %s\n\n", b.Recommendations.Tone))
	sb.WriteString(fmt.Sprintf("**Style:** %s\n", b.Recommendations.Style))
	if b.Recommendations.TargetAudience != "" {
		sb.WriteString(fmt.Sprintf("\n**Audience:** %s\n", b.Recommendations.TargetAudience))
	}

	return sb.String()
}

// WriteFile writes content to path, creating parent directories as needed,
// and returns the path written.
func WriteFile(path, content string) (string, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return path, nil
}
