package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	gen := BuildPrompt(Request{Topic: "EV market", SectionTitle: "Introduction"})
	assert.Contains(t, gen, "titled 'Introduction'")
	assert.Contains(t, gen, "business document on 'EV market'")

	refine := BuildPrompt(Request{Content: "old text", Instruction: "make it shorter"})
	assert.Equal(t, "Refine the following text according to this instruction:\nmake it shorter\n\nText:\nold text", refine)
}

func TestLoremProvider(t *testing.T) {
	p := NewLoremProvider()

	text, err := p.Generate(context.Background(), Request{Topic: "Solar", SectionTitle: "Results"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "[Mock] Results: Solar"))

	text, err = p.Generate(context.Background(), Request{Content: "body", Instruction: "poem"})
	require.NoError(t, err)
	assert.Equal(t, "body\n\n[Mock refine: poem]", text)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeminiProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body.Contents[0].Parts[0].Text, "Refine the following text")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"refined "},{"text":"text"}]}}]}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL+"/", "k", "gemini-test")
	text, err := p.Generate(context.Background(), Request{Content: "a", Instruction: "b"})

	require.NoError(t, err)
	assert.Equal(t, "refined text", text)
}

func TestGeminiProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewGeminiProvider(server.URL, "k", "m").Generate(context.Background(), Request{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}

func TestGeminiProvider_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := NewGeminiProvider(server.URL, "k", "m").Generate(context.Background(), Request{})
	assert.Error(t, err)
}

type slowGenerator struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (s *slowGenerator) Generate(ctx context.Context, req Request) (string, error) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return "ok", nil
}

func TestThrottle_LimitsConcurrency(t *testing.T) {
	inner := &slowGenerator{}
	throttle := NewThrottle(inner, 2)

	done := make(chan struct{})
	for range 6 {
		go func() {
			throttle.Generate(context.Background(), Request{})
			done <- struct{}{}
		}()
	}
	for range 6 {
		<-done
	}

	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
}

type blockingGenerator struct{ release chan struct{} }

func (b *blockingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	<-b.release
	return "", errors.New("unreachable")
}

func TestThrottle_AcquireHonoursContext(t *testing.T) {
	inner := &blockingGenerator{release: make(chan struct{})}
	throttle := NewThrottle(inner, 1)
	defer close(inner.release)

	go throttle.Generate(context.Background(), Request{})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := throttle.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_FallsBackToLorem(t *testing.T) {
	gen := New(Settings{Provider: "anthropic", MaxConcurrent: 1}, zerolog.Nop())

	throttle, ok := gen.(*Throttle)
	require.True(t, ok)
	_, isLorem := throttle.next.(*LoremProvider)
	assert.True(t, isLorem)
}

func TestDefaultPresets(t *testing.T) {
	presets := DefaultPresets()

	poem, ok := presets.Lookup("poem")
	require.True(t, ok)
	assert.Equal(t, "Convert this content into a structured poem or verse with a creative tone, but meaning same.", poem.Instruction)

	_, ok = presets.Lookup("haiku")
	assert.False(t, ok)
	assert.NotEmpty(t, presets.List())
}

func TestParsePresets_RejectsDuplicates(t *testing.T) {
	_, err := ParsePresets([]byte("presets:\n  - {name: a, instruction: x}\n  - {name: a, instruction: y}\n"))
	assert.Error(t, err)
}
