// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package sanitize reduces untrusted HTML to an allow-listed tag set.
//
// Model-generated markup and feed summaries are both treated as hostile
// input. The sanitizer walks tag boundaries with a streaming tokenizer
// instead of layered regular expressions, so nested disallowed tags around
// allowed ones can't reorder into the output.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// allowedTags is the fixed set of tags that survive [Body]. Everything else
// degrades to its inner text.
var allowedTags = map[string]bool{
	"p":      true,
	"h2":     true,
	"ul":     true,
	"li":     true,
	"strong": true,
	"code":   true,
	"a":      true,
}

// Body sanitizes untrusted HTML for embedding into a page.
//
// Script and style elements are removed together with their entire contents.
// Tags outside the allow set lose their markup but keep their inner text, so
// disallowed formatting degrades to plain text rather than vanishing content.
// Allowed tags pass through byte-for-byte, attributes included. Text is
// entity-escaped on output, so fragments left by deleted markup can never
// splice together into new tags. Comments and doctypes are dropped. The
// result is trimmed.
//
// Body is idempotent: sanitizing its own output changes nothing.
func Body(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var (
		b         strings.Builder
		skipUntil string // inside a script/style element until this end tag
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// Tokenizer only stops at EOF when reading from a string.
			return strings.TrimSpace(b.String())
		}

		switch tt {
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// Raw must be copied before TagName, which may clobber its backing array.
			raw := string(z.Raw())
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))

			if skipUntil != "" {
				if tt == html.EndTagToken && tag == skipUntil {
					skipUntil = ""
				}
				continue
			}
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skipUntil = tag
				}
				continue
			}
			if allowedTags[tag] {
				b.WriteString(raw)
			}
		case html.TextToken:
			if skipUntil == "" {
				b.WriteString(html.EscapeString(string(z.Text())))
			}
		}
		// Comments and doctypes fall through and are dropped.
	}
}

// dropAngles removes angle brackets that reach the text stream anyway,
// either decoded from entities or left behind by malformed markup.
var dropAngles = strings.NewReplacer("<", " ", ">", " ")

// Text strips all markup from untrusted HTML, leaving plain text suitable
// for teasers and prompts. Tags are replaced with whitespace, script and
// style contents are removed entirely, entities are decoded, leftover angle
// brackets are dropped, and runs of whitespace collapse to a single space.
func Text(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var (
		b         strings.Builder
		skipUntil string
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return strings.Join(strings.Fields(dropAngles.Replace(b.String())), " ")
		}

		switch tt {
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))

			if skipUntil != "" {
				if tt == html.EndTagToken && tag == skipUntil {
					skipUntil = ""
				}
			} else if (tag == "script" || tag == "style") && tt == html.StartTagToken {
				skipUntil = tag
			}
			b.WriteString(" ")
		case html.TextToken:
			if skipUntil == "" {
				b.Write(z.Text())
			}
		}
	}
}
