package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Request is everything a provider needs for one generate or refine call.
// An empty Instruction means initial generation.
type Request struct {
	Topic        string
	SectionTitle string
	Content      string
	Instruction  string
}

func (r Request) IsRefine() bool {
	return strings.TrimSpace(r.Instruction) != ""
}

// Generator is the generation collaborator: topic, content and instruction in, new content out.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

const systemPrompt = "You are a professional business writer helping a user draft one section of a document. " +
	"Answer with the section text only, without preamble."

// BuildPrompt renders the user prompt sent to remote providers.
func BuildPrompt(req Request) string {
	if req.IsRefine() {
		return fmt.Sprintf("Refine the following text according to this instruction:\n%s\n\nText:\n%s", req.Instruction, req.Content)
	}
	return fmt.Sprintf(
		"Write a detailed, well-structured section titled '%s' for a business document on '%s'. Ensure clarity, depth and professional tone.",
		req.SectionTitle, req.Topic,
	)
}

type Settings struct {
	Provider        string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	MaxConcurrent   int
}

// New picks the configured provider and falls back to the lorem provider when the
// provider has no credentials, so the service stays usable offline.
func New(settings Settings, logger zerolog.Logger) Generator {
	var provider Generator
	switch settings.Provider {
	case "anthropic":
		if settings.AnthropicAPIKey != "" {
			provider = NewAnthropicProvider(settings.AnthropicAPIKey, settings.AnthropicModel)
		}
	case "gemini":
		if settings.GeminiAPIKey != "" {
			provider = NewGeminiProvider(settings.GeminiBaseURL, settings.GeminiAPIKey, settings.GeminiModel)
		}
	case "lorem":
		provider = NewLoremProvider()
	default:
		logger.Warn().Str("provider", settings.Provider).Msg("unknown generation provider")
	}

	if provider == nil {
		logger.Warn().Str("provider", settings.Provider).Msg("no credentials for generation provider, using lorem mock")
		provider = NewLoremProvider()
	} else {
		logger.Info().Str("provider", settings.Provider).Msg("generation provider ready")
	}

	return NewThrottle(provider, settings.MaxConcurrent)
}
