package export

import (
	"fmt"
	"strings"

	"ai-doc-authoring/internal/domain"

	"gopkg.in/yaml.v3"
)

type metadata struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle,omitempty"`
}

// BuildMarkdown lays the snapshot out as a pandoc Markdown document: a YAML title
// block, then one level-2 heading per section. For slides every non-empty content
// line becomes its own paragraph.
func BuildMarkdown(snap domain.Snapshot, format domain.DocType) (string, error) {
	meta := metadata{Title: snap.Name}
	if strings.TrimSpace(snap.MainTopic) != "" {
		meta.Subtitle = "Topic: " + snap.MainTopic
	}
	header, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")

	for _, s := range snap.Sections {
		fmt.Fprintf(&b, "## %s\n\n", headingText(s.Title))

		content := strings.TrimSpace(s.Content)
		if content == "" {
			continue
		}
		if format == domain.DocTypePptx {
			content = splitLines(content)
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	return b.String(), nil
}

// headingText drops any leading heading markers and keeps the title on one line.
func headingText(title string) string {
	title = strings.TrimLeft(strings.TrimSpace(title), "#")
	return strings.Join(strings.Fields(title), " ")
}

func splitLines(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n\n")
}
