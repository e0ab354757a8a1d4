// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package site renders the static site: home page, post page, robots.txt and
// sitemap.xml.
//
// Rendering is pure with respect to its inputs: identical config, feed entry
// and body produce byte-identical artifacts (modulo the injected clock),
// which keeps the renderer testable with golden comparisons.
package site

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.astrophena.name/autorss/internal/atomicio"
	"go.astrophena.name/autorss/internal/config"
	"go.astrophena.name/autorss/internal/feed"
	"go.astrophena.name/autorss/internal/sanitize"

	slugify "github.com/gosimple/slug"
)

// ExitCode is the process exit code for missing template or asset files.
const ExitCode = 5

// slugLimit bounds slug length; longer titles are cut at the last separator.
const slugLimit = 80

// fallbackSlug is used when the entry title slugifies to nothing.
const fallbackSlug = "post"

// Error describes a missing required template or asset file.
type Error struct {
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.Err }

// ExitCode implements the cli.ExitCoder interface.
func (e *Error) ExitCode() int { return ExitCode }

// Renderer writes the site artifacts under Root.
type Renderer struct {
	// Root is the output directory (the publishing target).
	Root string
	// TemplatesDir holds index.html and post.html templates.
	TemplatesDir string
	// AssetsDir holds style.css and the optional app.js.
	AssetsDir string
	// Now acts as time.Now, but can be mocked for testing.
	Now func() time.Time
}

// Post is the template data for a single rendered post.
type Post struct {
	Slug         string
	Title        string
	URL          string // original source link
	Summary      string // plain-text teaser, markup already stripped
	Published    time.Time
	Body         template.HTML // sanitized by the content generator
	RSSURL       string
	GeneratedUTC string
	ContactEmail string
}

// indexData is the template data for the home page.
type indexData struct {
	SiteTitle       string
	SiteDescription string
	BaseURL         string
	GeneratedAt     time.Time
	Posts           []Post
}

// postData is the template data for the post page.
type postData struct {
	SiteTitle string
	BaseURL   string
	Post      Post
}

// Result points at the rendered post.
type Result struct {
	PostRelPath string // site-relative, e.g. posts/hello-world.html
	PostURL     string // absolute, built from base_url
}

// Slug derives a URL-safe slug from an entry title: lower-cased,
// transliterated, separator-normalized and truncated.
func Slug(title string) string {
	s := slugify.Make(title)
	if len(s) > slugLimit {
		s = strings.Trim(s[:slugLimit], "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Renderer) templates() (*template.Template, error) {
	if _, err := os.Stat(r.TemplatesDir); err != nil {
		return nil, &Error{Err: fmt.Errorf("templates folder missing: %s", r.TemplatesDir)}
	}
	tmpl, err := template.ParseFiles(
		filepath.Join(r.TemplatesDir, "index.html"),
		filepath.Join(r.TemplatesDir, "post.html"),
	)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("loading templates: %w", err)}
	}
	return tmpl, nil
}

// Render produces index.html, posts/<slug>.html, robots.txt and sitemap.xml
// from the config, the feed entry and the sanitized body.
//
// The publication timestamp prefers the structured time carried by the feed
// entry and falls back to the current run time; it is display-only and never
// affects the slug or the file path.
func (r *Renderer) Render(cfg *config.Config, item *feed.Item, body string) (*Result, error) {
	tmpl, err := r.templates()
	if err != nil {
		return nil, err
	}

	now := r.now()
	published := now
	if item.Date != nil {
		published = *item.Date
	}

	slug := Slug(item.Title)
	postRel := path.Join("posts", slug+".html")
	postURL := cfg.Site.BaseURL + "/" + postRel

	post := Post{
		Slug:  slug,
		Title: item.Title,
		URL:   item.Link,
		// The teaser must never contain HTML, even if the source feed embedded it.
		Summary:      sanitize.Text(item.Summary),
		Published:    published,
		Body:         template.HTML(body),
		RSSURL:       cfg.RSSURL,
		GeneratedUTC: now.UTC().Format(time.RFC3339),
		ContactEmail: cfg.ContactEmail,
	}

	var index strings.Builder
	if err := tmpl.ExecuteTemplate(&index, "index.html", indexData{
		SiteTitle:       cfg.Site.Title,
		SiteDescription: cfg.Site.Description,
		BaseURL:         cfg.Site.BaseURL,
		GeneratedAt:     now.UTC(),
		Posts:           []Post{post},
	}); err != nil {
		return nil, fmt.Errorf("rendering index.html: %w", err)
	}

	var postPage strings.Builder
	if err := tmpl.ExecuteTemplate(&postPage, "post.html", postData{
		SiteTitle: cfg.Site.Title,
		BaseURL:   cfg.Site.BaseURL,
		Post:      post,
	}); err != nil {
		return nil, fmt.Errorf("rendering post.html: %w", err)
	}

	urls := []string{
		cfg.Site.BaseURL + "/",
		cfg.Site.BaseURL + "/index.html",
		postURL,
	}

	artifacts := map[string]string{
		"index.html":  index.String(),
		postRel:       postPage.String(),
		"robots.txt":  Robots(cfg.Site.BaseURL),
		"sitemap.xml": Sitemap(urls),
	}
	for name, content := range artifacts {
		if err := atomicio.WriteFile(filepath.Join(r.Root, filepath.FromSlash(name)), []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}

	return &Result{PostRelPath: postRel, PostURL: postURL}, nil
}

// Robots builds robots.txt pointing crawlers at the sitemap.
func Robots(baseURL string) string {
	return "User-agent: *\nAllow: /\n\nSitemap: " + baseURL + "/sitemap.xml\n"
}

// Sitemap builds sitemap.xml listing the given absolute URLs.
func Sitemap(urls []string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<urlset xmlns=\"http://www.sitemaps.org/schemas/sitemap/0.9\">\n")
	for _, u := range urls {
		b.WriteString("<url><loc>" + u + "</loc></url>\n")
	}
	b.WriteString("</urlset>\n")
	return b.String()
}

// CopyAssets copies style.css (required) and app.js (optional) from the
// assets source directory into the published assets directory.
func (r *Renderer) CopyAssets() error {
	css, err := os.ReadFile(filepath.Join(r.AssetsDir, "style.css"))
	if err != nil {
		return &Error{Err: fmt.Errorf("assets/style.css missing: %w", err)}
	}
	if err := atomicio.WriteFile(filepath.Join(r.Root, "assets", "style.css"), css, 0o644); err != nil {
		return err
	}

	appjs, err := os.ReadFile(filepath.Join(r.AssetsDir, "app.js"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return atomicio.WriteFile(filepath.Join(r.Root, "assets", "app.js"), appjs, 0o644)
}
