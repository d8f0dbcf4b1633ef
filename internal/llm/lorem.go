package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	loremgen "github.com/bozaro/golorem"
)

// LoremProvider is the offline mock: generated sections are lorem ipsum,
// refinements echo the instruction so the history stays readable.
type LoremProvider struct {
	mu        sync.Mutex
	generator *loremgen.Lorem
}

func NewLoremProvider() *LoremProvider {
	return &LoremProvider{
		generator: loremgen.New(),
	}
}

func (p *LoremProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if req.IsRefine() {
		return fmt.Sprintf("%s\n\n[Mock refine: %s]", req.Content, strings.TrimSpace(req.Instruction)), nil
	}

	// serialize access to the generator
	p.mu.Lock()
	defer p.mu.Unlock()

	paragraphs := []string{fmt.Sprintf("[Mock] %s: %s", req.SectionTitle, req.Topic)}
	for range 3 {
		paragraphs = append(paragraphs, p.generator.Paragraph(3, 5))
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
