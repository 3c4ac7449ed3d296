package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"briefgen/internal/brief"
	"briefgen/internal/core"
	"briefgen/internal/render"
)

// writeStructured renders v as JSON or YAML. Briefs may also be rendered
// as markdown.
func writeStructured(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "markdown", "md":
		b, ok := v.(core.Brief)
		if !ok {
			return fmt.Errorf("markdown output is only available for briefs")
		}
		_, err := io.WriteString(w, render.RenderBriefMarkdown(b))
		return err
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (use json, yaml or markdown)", format)
	}
}

// writeText writes content to path, or to w when path is empty
func writeText(w io.Writer, path, content string) error {
	if path == "" {
		_, err := fmt.Fprintln(w, content)
		return err
	}
	_, err := render.WriteFile(path, content)
	return err
}

// readBriefFile loads a brief saved by 'briefgen brief'. JSON and YAML are
// both accepted; the result goes through the usual brief validation.
func readBriefFile(path string) (core.Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Brief{}, fmt.Errorf("failed to read brief: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return core.Brief{}, fmt.Errorf("failed to parse brief %s: %w", path, err)
	}
	if raw == nil {
		return core.Brief{}, fmt.Errorf("brief %s is empty", path)
	}

	b, err := brief.Validate(raw)
	if err != nil {
		return core.Brief{}, fmt.Errorf("invalid brief %s: %w", path, err)
	}
	return b, nil
}
