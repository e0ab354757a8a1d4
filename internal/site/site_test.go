// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/autorss/internal/config"
	"go.astrophena.name/autorss/internal/feed"
	"go.astrophena.name/autorss/internal/testutil"
)

var update = flag.Bool("update", false, "update golden files in testdata")

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Site: config.Site{
			Title:       "Example Site",
			Description: "A test site.",
			BaseURL:     "https://ex.github.io/site",
		},
		RSSURL:       "https://src.example/feed.xml",
		ContactEmail: "ops@example.com",
	}
}

func testItem() *feed.Item {
	return &feed.Item{
		Title:   "Hello World",
		Link:    "https://src.example/a",
		Summary: "<p>abc</p>",
	}
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	}
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	return &Renderer{
		Root:         t.TempDir(),
		TemplatesDir: filepath.Join("..", "..", "templates"),
		AssetsDir:    filepath.Join("..", "..", "assets"),
		Now:          fixedClock(),
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in, want string
	}{
		"simple":          {"Hello World", "hello-world"},
		"transliterated":  {"Héllo Wörld", "hello-world"},
		"punctuation":     {"Breaking: Go 1.24 released!", "breaking-go-1-24-released"},
		"empty":           {"", "post"},
		"only symbols":    {"???!!!", "post"},
		"already a slug":  {"hello-world", "hello-world"},
		"long truncation": {strings.Repeat("word ", 40), strings.Trim(strings.Repeat("word-", 16), "-")},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := Slug(tc.in)
			testutil.AssertEqual(t, got, tc.want)
			if len(got) > slugLimit {
				t.Fatalf("slug %q exceeds %d characters", got, slugLimit)
			}
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	r := testRenderer(t)
	res, err := r.Render(testConfig(), testItem(), "<p><strong>Summary</strong>: test</p>")
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, res.PostRelPath, "posts/hello-world.html")
	testutil.AssertEqual(t, res.PostURL, "https://ex.github.io/site/posts/hello-world.html")

	post := readFile(t, filepath.Join(r.Root, "posts", "hello-world.html"))
	if !strings.Contains(post, "<strong>Summary</strong>") {
		t.Error("post page must embed the sanitized body verbatim")
	}
	if strings.Contains(post, "<script") {
		t.Error("post page must not contain script tags")
	}
	if !strings.Contains(post, "https://src.example/a") {
		t.Error("post page must link to the original source")
	}
	if !strings.Contains(post, "ops@example.com") {
		t.Error("post page must carry the contact email")
	}

	index := readFile(t, filepath.Join(r.Root, "index.html"))
	if !strings.Contains(index, "Hello World") {
		t.Error("home page must list the post")
	}
	if !strings.Contains(index, "abc") {
		t.Error("home page must carry the teaser")
	}

	sitemap := readFile(t, filepath.Join(r.Root, "sitemap.xml"))
	testutil.AssertEqual(t, strings.Count(sitemap, "<loc>"), 3)
	for _, u := range []string{
		"https://ex.github.io/site/",
		"https://ex.github.io/site/index.html",
		"https://ex.github.io/site/posts/hello-world.html",
	} {
		if !strings.Contains(sitemap, "<loc>"+u+"</loc>") {
			t.Errorf("sitemap missing %s", u)
		}
	}

	robots := readFile(t, filepath.Join(r.Root, "robots.txt"))
	testutil.AssertEqual(t, robots, "User-agent: *\nAllow: /\n\nSitemap: https://ex.github.io/site/sitemap.xml\n")
}

func TestRenderTeaserHasNoMarkup(t *testing.T) {
	t.Parallel()

	item := testItem()
	item.Summary = "<b>Big</b> news &amp; more"

	r := testRenderer(t)
	if _, err := r.Render(testConfig(), item, "<p>body</p>"); err != nil {
		t.Fatal(err)
	}

	index := readFile(t, filepath.Join(r.Root, "index.html"))
	if !strings.Contains(index, "Big news &amp; more") {
		t.Errorf("teaser must be plain text, escaped by the template; index:\n%s", index)
	}
	if strings.Contains(index, "<b>") {
		t.Error("teaser markup leaked into the home page")
	}
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	render := func(t *testing.T) map[string]string {
		r := testRenderer(t)
		if _, err := r.Render(testConfig(), testItem(), "<p>same body</p>"); err != nil {
			t.Fatal(err)
		}
		out := make(map[string]string)
		for _, name := range []string{"index.html", "posts/hello-world.html", "robots.txt", "sitemap.xml"} {
			out[name] = readFile(t, filepath.Join(r.Root, filepath.FromSlash(name)))
		}
		return out
	}

	testutil.AssertEqual(t, render(t), render(t))
}

func TestRenderUsesEntryDate(t *testing.T) {
	t.Parallel()

	date := time.Date(2020, 5, 4, 8, 0, 0, 0, time.UTC)
	item := testItem()
	item.Date = &date

	r := testRenderer(t)
	if _, err := r.Render(testConfig(), item, "<p>body</p>"); err != nil {
		t.Fatal(err)
	}

	post := readFile(t, filepath.Join(r.Root, "posts", "hello-world.html"))
	if !strings.Contains(post, "2020-05-04") {
		t.Error("post page must display the entry's publication date")
	}
}

func TestRenderMissingTemplates(t *testing.T) {
	t.Parallel()

	r := testRenderer(t)
	r.TemplatesDir = filepath.Join(t.TempDir(), "nope")

	_, err := r.Render(testConfig(), testItem(), "<p>body</p>")
	var siteErr *Error
	if !errors.As(err, &siteErr) {
		t.Fatalf("want *site.Error, got %v", err)
	}
	testutil.AssertEqual(t, siteErr.ExitCode(), ExitCode)
}

func TestCopyAssets(t *testing.T) {
	t.Parallel()

	r := testRenderer(t)
	if err := r.CopyAssets(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(r.Root, "assets", "style.css")); err != nil {
		t.Fatal(err)
	}
}

func TestCopyAssetsMissingCSS(t *testing.T) {
	t.Parallel()

	r := testRenderer(t)
	r.AssetsDir = t.TempDir() // empty

	err := r.CopyAssets()
	var siteErr *Error
	if !errors.As(err, &siteErr) {
		t.Fatalf("want *site.Error, got %v", err)
	}
}

func TestCopyAssetsOptionalAppJS(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := testRenderer(t)
	r.AssetsDir = src

	// No app.js in the source directory: not an error.
	if err := r.CopyAssets(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(r.Root, "assets", "app.js")); err == nil {
		t.Fatal("app.js must not appear out of thin air")
	}
}

func TestSitemapGolden(t *testing.T) {
	testutil.RunGolden(t, filepath.Join("testdata", "sitemap", "*.urls"), func(t *testing.T, match string) []byte {
		urls := strings.Fields(readFile(t, match))
		return []byte(Sitemap(urls))
	}, *update)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
