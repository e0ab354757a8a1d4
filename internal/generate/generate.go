// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package generate produces a sanitized HTML article body from a feed entry
// using an OpenAI-compatible chat completion API.
package generate

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.astrophena.name/autorss/internal/config"
	"go.astrophena.name/autorss/internal/feed"
	"go.astrophena.name/autorss/internal/sanitize"

	openai "github.com/sashabaranov/go-openai"
)

// ExitCode is the process exit code for generation errors.
const ExitCode = 3

// Timeout bounds the single generation call. One failed call aborts the run;
// there are no retries.
const Timeout = 60 * time.Second

// DefaultBaseURL is the DeepSeek OpenAI-compatible API endpoint.
const DefaultBaseURL = "https://api.deepseek.com/v1"

const (
	// snippetLimit caps how much tag-stripped summary text goes into the
	// prompt.
	snippetLimit = 800
	// excerptLimit caps how much of an API error ends up in the error message.
	excerptLimit = 800
)

// fallbackBody is substituted when sanitization yields nothing usable, so
// the generated body is never empty.
const fallbackBody = "<p><strong>Summary</strong>: Not stated in the source.</p>"

// Error describes a failed generation call or an unexpected response shape.
type Error struct {
	// StatusCode is the HTTP status of the API response, 0 if the call never
	// got one.
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.Err }

// ExitCode implements the cli.ExitCoder interface.
func (e *Error) ExitCode() int { return ExitCode }

// Generator calls the chat completion API.
type Generator struct {
	// APIKey is the bearer token used for authentication.
	APIKey string
	// BaseURL overrides DefaultBaseURL. Used in tests.
	BaseURL string
	// HTTPClient is an optional custom HTTP client to use for requests.
	// Defaults to a client with Timeout.
	HTTPClient *http.Client
}

// Article generates the HTML article body for item and sanitizes it down to
// the allowed tag set. It never returns an empty body: if the model output
// sanitizes to nothing, a fixed fallback paragraph is returned instead.
func (g *Generator) Article(ctx context.Context, gen config.Generation, item *feed.Item) (string, error) {
	cc := openai.DefaultConfig(g.APIKey)
	cc.BaseURL = cmp.Or(g.BaseURL, DefaultBaseURL)
	cc.HTTPClient = g.HTTPClient
	if cc.HTTPClient == nil {
		cc.HTTPClient = &http.Client{Timeout: Timeout}
	}
	client := openai.NewClientWithConfig(cc)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: gen.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(item)},
		},
		Temperature: float32(gen.TemperatureOrDefault()),
		MaxTokens:   gen.MaxTokensOrDefault(),
	})
	if err != nil {
		return "", wrapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Err: errors.New("generation API response has no choices")}
	}

	out := sanitize.Body(resp.Choices[0].Message.Content)
	if out == "" {
		out = fallbackBody
	}
	return out, nil
}

// wrapAPIError converts go-openai errors into an *Error carrying the HTTP
// status and a bounded excerpt of the response.
func wrapAPIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			StatusCode: apiErr.HTTPStatusCode,
			Err:        fmt.Errorf("generation API error: HTTP %d: %s", apiErr.HTTPStatusCode, excerpt(apiErr.Message)),
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			StatusCode: reqErr.HTTPStatusCode,
			Err:        fmt.Errorf("generation API error: HTTP %d: %s", reqErr.HTTPStatusCode, excerpt(reqErr.Error())),
		}
	}
	return &Error{Err: fmt.Errorf("generation API call failed: %w", err)}
}

func excerpt(s string) string {
	if len(s) > excerptLimit {
		return s[:excerptLimit]
	}
	return s
}
