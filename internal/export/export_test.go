package export

import (
	"archive/zip"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"

	"ai-doc-authoring/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Name:      "Q3 Market Report",
		MainTopic: "EV adoption: Europe",
		DocType:   domain.DocTypeDocx,
		Sections: []domain.SnapshotSection{
			{Title: "Introduction", Content: "First line\nSecond line"},
			{Title: "Results", Content: ""},
		},
	}
}

func TestBuildMarkdown_Docx(t *testing.T) {
	md, err := BuildMarkdown(sampleSnapshot(), domain.DocTypeDocx)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: Q3 Market Report\n"))
	assert.Contains(t, md, "subtitle: ")
	assert.Contains(t, md, "Topic: EV adoption: Europe")
	assert.Contains(t, md, "## Introduction\n\nFirst line\nSecond line\n\n")
	assert.Contains(t, md, "## Results\n\n")
	assert.Less(t, strings.Index(md, "## Introduction"), strings.Index(md, "## Results"))
}

func TestBuildMarkdown_PptxSplitsLines(t *testing.T) {
	md, err := BuildMarkdown(sampleSnapshot(), domain.DocTypePptx)
	require.NoError(t, err)

	assert.Contains(t, md, "First line\n\nSecond line")
}

func TestBuildMarkdown_NoTopic(t *testing.T) {
	snap := sampleSnapshot()
	snap.MainTopic = "  "

	md, err := BuildMarkdown(snap, domain.DocTypeDocx)
	require.NoError(t, err)
	assert.NotContains(t, md, "subtitle")
}

func TestBuildMarkdown_HeadingMarkersInTitle(t *testing.T) {
	snap := sampleSnapshot()
	snap.Sections[0].Title = "# Intro"
	snap.Sections[1].Title = "  ##  Key\n  Points "

	md, err := BuildMarkdown(snap, domain.DocTypeDocx)
	require.NoError(t, err)
	assert.Contains(t, md, "## Intro\n\n")
	assert.Contains(t, md, "## Key Points\n\n")
	assert.NotContains(t, md, "##  ")
	assert.NotContains(t, md, "## #")
}

func TestHeadingText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Intro", "Intro"},
		{"# Intro", "Intro"},
		{"###Intro", "Intro"},
		{"  ##  Key   Points ", "Key Points"},
		{"C# basics", "C# basics"},
		{"#", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, headingText(tt.input))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello_World"},
		{"Report v1.2", "Report_v12"},
		{"../../etc/passwd", "etcpasswd"},
		{"", "document"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeFilename(tt.input))
		})
	}
}

func TestPandocRenderer_UnsupportedFormat(t *testing.T) {
	_, err := NewPandocRenderer("").Render(context.Background(), sampleSnapshot(), "pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPandocRenderer_MissingBinary(t *testing.T) {
	_, err := NewPandocRenderer("pandoc-does-not-exist").Render(context.Background(), sampleSnapshot(), domain.DocTypeDocx)
	assert.ErrorIs(t, err, ErrPandocMissing)
}

func TestPandocRenderer_Render(t *testing.T) {
	if _, err := exec.LookPath("pandoc"); err != nil {
		t.Skip("pandoc not installed")
	}

	for _, format := range []domain.DocType{domain.DocTypeDocx, domain.DocTypePptx} {
		result, err := NewPandocRenderer("pandoc").Render(context.Background(), sampleSnapshot(), format)
		require.NoError(t, err)

		assert.Equal(t, "Q3_Market_Report."+string(format), result.Filename)
		assert.Equal(t, mimeType(format), result.MimeType)

		// both formats are OOXML zip packages
		_, err = zip.NewReader(bytes.NewReader(result.Data), int64(len(result.Data)))
		assert.NoError(t, err)
	}
}
