// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package highlight

import (
	"html/template"
	"strings"
)

// Render tokenizes text and returns markup with each non-whitespace token
// wrapped in a span carrying a tok-<kind> class. Whitespace tokens are
// written verbatim with no wrapper so CSS whitespace handling stays intact.
//
// Only '&' and '<' are escaped. '>' outside a tag is harmless and the
// original renderer left it alone, so this one does too.
func Render(text string) template.HTML {
	var b strings.Builder
	for _, tok := range Tokenize(text) {
		if tok.Kind == KindWhitespace {
			b.WriteString(tok.Text)
			continue
		}
		b.WriteString(`<span class="tok-`)
		b.WriteString(string(tok.Kind))
		b.WriteString(`">`)
		b.WriteString(escapeText(tok.Text))
		b.WriteString(`</span>`)
	}
	return template.HTML(b.String())
}

// RenderPretty reindents valid JSON before rendering; anything else renders
// as-is.
func RenderPretty(text string) template.HTML {
	return Render(PrettyPrint(text))
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return s
}
