package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"ai-doc-authoring/internal/domain"
)

// PandocRenderer converts the Markdown layout of a snapshot with the pandoc binary.
type PandocRenderer struct {
	binary string
}

func NewPandocRenderer(binary string) *PandocRenderer {
	if binary == "" {
		binary = "pandoc"
	}
	return &PandocRenderer{binary: binary}
}

func (r *PandocRenderer) Render(ctx context.Context, snap domain.Snapshot, format domain.DocType) (*Result, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if _, err := exec.LookPath(r.binary); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPandocMissing, r.binary)
	}

	source, err := BuildMarkdown(snap, format)
	if err != nil {
		return nil, err
	}

	args := []string{"-f", "markdown", "-t", string(format), "--standalone", "-o", "-"}
	if format == domain.DocTypePptx {
		args = append(args, "--slide-level=2")
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdin = strings.NewReader(source)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("pandoc failed: %s", strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("pandoc execution failed: %w", err)
	}

	return &Result{
		Data:     output,
		Filename: sanitizeFilename(snap.Name) + "." + string(format),
		MimeType: mimeType(format),
	}, nil
}
