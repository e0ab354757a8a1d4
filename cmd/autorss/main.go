// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.astrophena.name/autorss/internal/cli"
	"go.astrophena.name/autorss/internal/config"
	"go.astrophena.name/autorss/internal/feed"
	"go.astrophena.name/autorss/internal/generate"
	"go.astrophena.name/autorss/internal/lock"
	"go.astrophena.name/autorss/internal/site"

	"github.com/joho/godotenv"
)

func main() { cli.Main(new(app)) }

type app struct {
	// configuration
	selftest bool
	root     string

	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time
	// overridden in tests
	feedClient *http.Client
	genBaseURL string
	genClient  *http.Client
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.selftest, "selftest", false, "Run quick sanity checks instead of the pipeline.")
	fs.StringVar(&a.root, "root", ".", "Run in `dir` instead of the current directory.")
}

// paths are the fixed file locations of one run, all relative to the root
// directory. Constructing them in one place keeps the stages independently
// testable.
type paths struct {
	config    string
	example   string
	templates string
	assets    string
	lock      string
}

func newPaths(root string) paths {
	return paths{
		config:    filepath.Join(root, "config.json"),
		example:   filepath.Join(root, "config.example.json"),
		templates: filepath.Join(root, "templates"),
		assets:    filepath.Join(root, "assets"),
		lock:      filepath.Join(root, ".autorss_lock.json"),
	}
}

func (a *app) Run(ctx context.Context, env *cli.Env) error {
	if len(env.Args) > 0 {
		return fmt.Errorf("%w: expected no arguments", cli.ErrInvalidArgs)
	}

	p := newPaths(a.root)

	if a.selftest {
		return runSelftest(env, p)
	}

	// One-shot gate. A present marker means a previous run fully succeeded;
	// exiting cleanly here is deliberate idempotency, not a failure.
	locked, createdUTC, err := lock.Check(p.lock)
	if err != nil {
		return err
	}
	if locked {
		msg := "Already ran once. This tool is one-shot by design."
		if createdUTC != "" {
			msg += fmt.Sprintf(" (first run: %s)", createdUTC)
		}
		fmt.Fprintln(env.Stdout, msg)
		return nil
	}

	cfg, err := config.Load(p.config, p.example)
	if err != nil {
		return err
	}

	apiKey := strings.TrimSpace(a.getenv(env)("DEEPSEEK_API_KEY"))
	if apiKey == "" {
		return &config.Error{Err: errors.New("missing DEEPSEEK_API_KEY (set it as a GitHub Actions secret)")}
	}

	item, err := (&feed.Fetcher{HTTPClient: a.feedClient}).Latest(ctx, cfg.RSSURL)
	if err != nil {
		return err
	}
	env.Logf("Fetched %q from %s.", item.Title, cfg.RSSURL)

	gen := &generate.Generator{
		APIKey:     apiKey,
		BaseURL:    a.genBaseURL,
		HTTPClient: a.genClient,
	}
	body, err := gen.Article(ctx, cfg.Generation, item)
	if err != nil {
		return err
	}

	renderer := &site.Renderer{
		Root:         a.root,
		TemplatesDir: p.templates,
		AssetsDir:    p.assets,
		Now:          a.now,
	}
	if err := renderer.CopyAssets(); err != nil {
		return err
	}
	res, err := renderer.Render(cfg, item, body)
	if err != nil {
		return err
	}

	now := a.now
	if now == nil {
		now = time.Now
	}
	if err := lock.Commit(p.lock, res.PostURL, now()); err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, "DONE")
	fmt.Fprintf(env.Stdout, "Post: %s\n", res.PostURL)
	return nil
}

// getenv layers an optional .env file in the run directory under the real
// environment. The environment always wins.
func (a *app) getenv(env *cli.Env) func(string) string {
	vals, err := godotenv.Read(filepath.Join(a.root, ".env"))
	if err != nil {
		return env.Getenv
	}
	return func(key string) string {
		return cmp.Or(env.Getenv(key), vals[key])
	}
}

// runSelftest verifies that every file a real run would need is present.
func runSelftest(env *cli.Env, p paths) error {
	required := []string{
		p.example,
		filepath.Join(p.templates, "index.html"),
		filepath.Join(p.templates, "post.html"),
		filepath.Join(p.assets, "style.css"),
	}
	for _, path := range required {
		if _, err := os.Stat(path); err != nil {
			return &cli.ExitError{
				Code: site.ExitCode,
				Err:  fmt.Errorf("%s missing", path),
			}
		}
	}
	fmt.Fprintln(env.Stdout, "SELFTEST OK")
	return nil
}
