// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package generate

import (
	"fmt"
	"strings"

	"go.astrophena.name/autorss/internal/feed"
	"go.astrophena.name/autorss/internal/sanitize"
)

// systemPrompt pins the model to factual restraint and HTML-only output.
const systemPrompt = "You are a careful technical writer. Write in English only. " +
	"Do not fabricate facts. If something is not stated in the source, say: 'Not stated in the source.' " +
	"Output HTML only (no markdown)."

const userPromptFormat = `OUTPUT RULES:
- Output HTML body only.
- Allowed tags: <p>, <h2>, <ul>, <li>, <strong>, <code>, <a>
- No <h1>.
- No scripts.
- Be concise but useful.

INPUT:
Title: %s
Link: %s
RSS snippet: %s

STRUCTURE:
1) <p><strong>Summary</strong>: 2–4 sentences. Mention what happened and who it matters to.</p>
2) <h2>Key points</h2> + 4–6 bullets
3) <h2>Practical takeaway</h2> + 2–4 bullets
4) <h2>Original source</h2> link to the URL`

// userPrompt builds the structural instruction for item. The feed summary is
// stripped of markup and truncated to snippetLimit characters to cap prompt
// size.
func userPrompt(item *feed.Item) string {
	snippet := sanitize.Text(item.Summary)
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return strings.TrimSpace(fmt.Sprintf(userPromptFormat, item.Title, item.Link, snippet))
}
