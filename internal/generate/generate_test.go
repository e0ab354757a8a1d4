// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/autorss/internal/config"
	"go.astrophena.name/autorss/internal/feed"
	"go.astrophena.name/autorss/internal/testutil"
)

var testItem = &feed.Item{
	Title:   "Hello World",
	Link:    "https://src.example/a",
	Summary: "<p>abc</p>",
}

func testGeneration() config.Generation {
	temp := 0.2
	maxTokens := 500
	return config.Generation{
		Model:       "deepseek-chat",
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// completionServer fakes the chat completion endpoint, returning content and
// recording the last request.
func completionServer(t *testing.T, content string, lastReq *chatRequest) *Generator {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if lastReq != nil {
			if err := json.NewDecoder(r.Body).Decode(lastReq); err != nil {
				t.Errorf("decoding request: %v", err)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "deepseek-chat",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(ts.Close)
	return &Generator{APIKey: "test-key", BaseURL: ts.URL, HTTPClient: ts.Client()}
}

func TestArticle(t *testing.T) {
	t.Parallel()

	var req chatRequest
	g := completionServer(t, "<p><strong>Summary</strong>: test</p><script>bad()</script>", &req)

	body, err := g.Article(context.Background(), testGeneration(), testItem)
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, body, "<p><strong>Summary</strong>: test</p>")

	testutil.AssertEqual(t, req.Model, "deepseek-chat")
	testutil.AssertEqual(t, req.MaxTokens, 500)
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "Title: Hello World") {
		t.Fatalf("user prompt doesn't mention the entry title: %q", req.Messages[1].Content)
	}
	if !strings.Contains(req.Messages[1].Content, "RSS snippet: abc") {
		t.Fatalf("user prompt must carry the tag-stripped summary: %q", req.Messages[1].Content)
	}
}

func TestArticleFallbackOnEmptyOutput(t *testing.T) {
	t.Parallel()

	// Everything the model returned sanitizes away.
	g := completionServer(t, "<script>only evil</script>", nil)

	body, err := g.Article(context.Background(), testGeneration(), testItem)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, body, fallbackBody)
}

func TestArticleAPIError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_exceeded"}}`))
	}))
	t.Cleanup(ts.Close)
	g := &Generator{APIKey: "test-key", BaseURL: ts.URL, HTTPClient: ts.Client()}

	_, err := g.Article(context.Background(), testGeneration(), testItem)
	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("want *generate.Error, got %v", err)
	}
	testutil.AssertEqual(t, genErr.StatusCode, http.StatusTooManyRequests)
	testutil.AssertEqual(t, genErr.ExitCode(), ExitCode)
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error must carry the API message, got: %v", err)
	}
}

func TestArticleUnreachableAPI(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	g := &Generator{APIKey: "test-key", BaseURL: ts.URL}

	_, err := g.Article(context.Background(), testGeneration(), testItem)
	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("want *generate.Error, got %v", err)
	}
}

func TestArticleNoChoices(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "cmpl-1", "object": "chat.completion", "choices": []any{}})
	}))
	t.Cleanup(ts.Close)
	g := &Generator{APIKey: "test-key", BaseURL: ts.URL, HTTPClient: ts.Client()}

	_, err := g.Article(context.Background(), testGeneration(), testItem)
	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("want *generate.Error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserPromptTruncatesSummary(t *testing.T) {
	t.Parallel()

	item := &feed.Item{
		Title:   "Long",
		Link:    "https://src.example/long",
		Summary: "<p>" + strings.Repeat("x", 5000) + "</p>",
	}
	prompt := userPrompt(item)
	if strings.Contains(prompt, strings.Repeat("x", snippetLimit+1)) {
		t.Fatal("summary was not truncated")
	}
	if strings.Contains(prompt, "<p>") {
		t.Fatal("summary markup leaked into the prompt")
	}
}
