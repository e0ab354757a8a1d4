// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Autorss generates a tiny static site from the newest entry of one RSS feed,
exactly once.

It reads config.json, fetches the newest feed entry, asks a DeepSeek
(OpenAI-compatible) model to write an HTML article body, renders index.html,
posts/<slug>.html, robots.txt and sitemap.xml into the current directory, and
then writes a lock file so it never runs again in the same deployment. Delete
.autorss_lock.json manually if you really want a rerun.

It is meant to run as a single CI job publishing to GitHub Pages. No
scheduling, no background automation.

# Usage

	$ autorss [flags...]

# Environment Variables

  - DEEPSEEK_API_KEY: API key for the generation API. Set it as a GitHub
    Actions secret. A .env file in the run directory is also honored.

# Exit Codes

	0 — success, or the lock file already exists
	1 — unclassified error
	2 — bad or missing configuration (including DEEPSEEK_API_KEY)
	3 — generation API failure
	4 — unreachable or malformed feed
	5 — missing template or asset file
*/
package main

import (
	_ "embed"

	"go.astrophena.name/autorss/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
