// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package feed retrieves the newest entry of a syndication feed.
package feed

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/autorss/internal/version"

	"github.com/mmcdole/gofeed"
)

// ExitCode is the process exit code for feed errors.
const ExitCode = 4

// Timeout bounds the single feed request. There are no retries: a transient
// network failure is a terminal run failure.
const Timeout = 30 * time.Second

// readLimit caps how much of an error response body ends up in the error
// message.
const readLimit = 16384 // 16 KB is enough for error messages (probably)

// DefaultClient is the [http.Client] used when none is provided.
var DefaultClient = &http.Client{Timeout: Timeout}

// Error describes an unreachable or malformed feed.
type Error struct {
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.Err }

// ExitCode implements the cli.ExitCoder interface.
func (e *Error) ExitCode() int { return ExitCode }

func errorf(format string, args ...any) *Error {
	return &Error{Err: fmt.Errorf(format, args...)}
}

// Item is the single newest feed entry. Title and Link are always non-empty;
// the other fields are read leniently and may be empty.
type Item struct {
	Title     string
	Link      string
	Summary   string     // raw summary, may contain HTML
	Published string     // as printed by the feed
	Date      *time.Time // parsed publication time, nil if the feed didn't carry one
}

// Fetcher retrieves feeds over HTTP.
type Fetcher struct {
	// HTTPClient is an optional custom HTTP client to use for the request.
	// If not provided, DefaultClient will be used.
	HTTPClient *http.Client
}

// Latest issues a single GET for url, parses the response as an RSS or Atom
// feed and returns the newest entry.
//
// The first entry in the parsed list is taken as the newest one: feeds are
// expected to be ordered newest-first by the source, and no re-sorting by
// date happens here.
func (f *Fetcher) Latest(ctx context.Context, url string) (*Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Err: err}
	}
	req.Header.Set("User-Agent", version.UserAgent())

	httpc := f.HTTPClient
	if httpc == nil {
		httpc = DefaultClient
	}

	res, err := httpc.Do(req)
	if err != nil {
		return nil, errorf("fetching feed %q: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(res.Body, readLimit))
		if err != nil {
			body = []byte("unable to read body")
		}
		return nil, errorf("fetching feed %q: want 200, got %d: %s", url, res.StatusCode, body)
	}

	parsed, err := gofeed.NewParser().Parse(res.Body)
	if err != nil {
		return nil, errorf("parsing feed %q: %w", url, err)
	}

	if len(parsed.Items) == 0 {
		return nil, errorf("feed %q has no entries", url)
	}

	e := parsed.Items[0]
	item := &Item{
		Title:     strings.TrimSpace(e.Title),
		Link:      strings.TrimSpace(e.Link),
		Summary:   strings.TrimSpace(cmp.Or(e.Description, e.Content)),
		Published: strings.TrimSpace(cmp.Or(e.Published, e.Updated)),
	}
	if e.PublishedParsed != nil {
		item.Date = e.PublishedParsed
	} else if e.UpdatedParsed != nil {
		item.Date = e.UpdatedParsed
	}

	if item.Title == "" || item.Link == "" {
		return nil, errorf("feed %q: newest entry is missing title or link", url)
	}

	return item, nil
}
