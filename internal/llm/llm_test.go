package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/chatgate/server/internal/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, ch <-chan Fragment) ([]string, error) {
	t.Helper()

	var texts []string
	timeout := time.After(5 * time.Second)

	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return texts, nil
			}
			if f.Err != nil {
				return texts, f.Err
			}
			texts = append(texts, f.Text)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func openAIChunk(content string) string {
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"content":%q},"finish_reason":null}]}`, content)
}

func TestOpenAIGeneratorStreamsFragmentsInOrder(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range []string{"He", "llo"} {
			fmt.Fprintf(w, "data: %s\n\n", openAIChunk(c))
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "test-model"})
	assert.Equal(t, "test-model", gen.Model())

	texts, err := collect(t, gen.Stream(context.Background(), []sessions.Turn{
		{Role: sessions.RoleUser, Content: "earlier"},
		{Role: sessions.RoleAssistant, Content: "reply"},
		{Role: sessions.RoleUser, Content: "hi"},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"He", "llo"}, texts)

	require.NotNil(t, gotBody)
	assert.Equal(t, true, gotBody["stream"])

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 3)
	assert.Equal(t, "assistant", messages[1].(map[string]any)["role"])
	assert.Equal(t, "hi", messages[2].(map[string]any)["content"])
}

func TestOpenAIGeneratorReportsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "nope"})

	_, err := collect(t, gen.Stream(context.Background(), []sessions.Turn{{Role: sessions.RoleUser, Content: "hi"}}))
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderOpenAI, perr.Provider)
}

func TestOpenAIGeneratorStopsOnCancel(t *testing.T) {
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", openAIChunk("first"))
		w.(http.Flusher).Flush()

		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	ch := gen.Stream(ctx, []sessions.Turn{{Role: sessions.RoleUser, Content: "hi"}})

	first := <-ch
	require.NoError(t, first.Err)
	assert.Equal(t, "first", first.Text)

	cancel()

	// the channel closes without reporting the cancellation as a provider error
	select {
	case f, ok := <-ch:
		if ok {
			assert.NoError(t, f.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close after cancel")
	}
}

func TestAnthropicGeneratorStreamsTextDeltas(t *testing.T) {
	events := []struct{ name, data string }{
		{"message_start", `{"type":"message_start","message":{"id":"m1","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":null,"usage":{"input_tokens":3,"output_tokens":0}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"ping", `{"type":"ping"}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"He"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"llo"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, e.data)
		}
	}))
	defer srv.Close()

	gen := NewAnthropicGenerator(AnthropicConfig{APIKey: "ak-test", BaseURL: srv.URL, Model: "claude-test"})

	texts, err := collect(t, gen.Stream(context.Background(), []sessions.Turn{{Role: sessions.RoleUser, Content: "hi"}}))
	require.NoError(t, err)
	assert.Equal(t, "Hello", strings.Join(texts, ""))
}

func TestAnthropicGeneratorReportsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	}))
	defer srv.Close()

	gen := NewAnthropicGenerator(AnthropicConfig{APIKey: "ak-test", BaseURL: srv.URL})

	_, err := collect(t, gen.Stream(context.Background(), []sessions.Turn{{Role: sessions.RoleUser, Content: "hi"}}))

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderAnthropic, perr.Provider)
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator(Config{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	g, err = NewGenerator(Config{Provider: ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicGenerator{}, g)
	assert.Equal(t, defaultAnthropicModel, g.Model())

	g, err = NewGenerator(Config{Provider: ProviderOpenAI, APIKey: "k", RateLimit: 5, RateBurst: 2})
	require.NoError(t, err)
	assert.IsType(t, &RateLimited{}, g)

	_, err = NewGenerator(Config{Provider: "mystery"})
	assert.Error(t, err)
}

// yields a fixed script; used to exercise wrappers without a network
type scriptedGenerator struct {
	texts []string
	calls int
}

func (s *scriptedGenerator) Model() string { return "scripted" }

func (s *scriptedGenerator) Stream(ctx context.Context, _ []sessions.Turn) <-chan Fragment {
	s.calls++
	out := make(chan Fragment)
	go func() {
		defer close(out)
		for _, text := range s.texts {
			if !send(ctx, out, Fragment{Text: text}) {
				return
			}
		}
	}()
	return out
}

func TestRateLimitedPassesThroughAndThrottles(t *testing.T) {
	inner := &scriptedGenerator{texts: []string{"a", "b"}}
	limited := NewRateLimited(inner, 0.001, 1)

	texts, err := collect(t, limited.Stream(context.Background(), nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)
	assert.Equal(t, "scripted", limited.Model())

	// the only token is spent; waiting for the next would exceed the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = collect(t, limited.Stream(ctx, nil))

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, inner.calls)
}

func TestConfigFromApp(t *testing.T) {
	c := ConfigFromApp(&appConfigOpenAI)
	assert.Equal(t, ProviderOpenAI, c.Provider)
	assert.Equal(t, "sk", c.APIKey)
	assert.Equal(t, "http://local/v1", c.BaseURL)
	assert.Equal(t, "gpt-x", c.Model)

	c = ConfigFromApp(&appConfigAnthropic)
	assert.Equal(t, ProviderAnthropic, c.Provider)
	assert.Equal(t, "ak", c.APIKey)
	assert.Equal(t, "claude-x", c.Model)
	assert.Empty(t, c.BaseURL)
}
