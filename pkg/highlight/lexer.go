// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package highlight

import (
	"strings"
	"unicode/utf8"
)

// Tokenize scans text left to right in a single pass and returns the token
// sequence. No backtracking, no nesting validation. Tokens come out in input
// byte order; joining their Text fields reproduces text exactly.
func Tokenize(text string) []Token {
	var out []Token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case isSpace(c):
			j := i + 1
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			out = append(out, Token{Kind: KindWhitespace, Text: text[i:j]})
			i = j
		case c == '"':
			j := scanString(text, i)
			out = append(out, Token{Kind: classifyQuoted(text, j), Text: text[i:j]})
			i = j
		case c == '-' || isDigit(c):
			j := i + 1
			for j < len(text) && isNumberChar(text[j]) {
				j++
			}
			out = append(out, Token{Kind: KindNumber, Text: text[i:j]})
			i = j
		case hasLiteral(text, i, "true"):
			out = append(out, Token{Kind: KindBoolean, Text: "true"})
			i += len("true")
		case hasLiteral(text, i, "false"):
			out = append(out, Token{Kind: KindBoolean, Text: "false"})
			i += len("false")
		case hasLiteral(text, i, "null"):
			out = append(out, Token{Kind: KindNull, Text: "null"})
			i += len("null")
		case isPunct(c):
			out = append(out, Token{Kind: KindPunctuation, Text: text[i : i+1]})
			i++
		default:
			// One raw token per character, not per byte. Invalid UTF-8
			// decodes with width 1, so arbitrary bytes still round-trip.
			_, width := utf8.DecodeRuneInString(text[i:])
			out = append(out, Token{Kind: KindRaw, Text: text[i : i+width]})
			i += width
		}
	}
	return out
}

// Join concatenates the token texts in order.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
	}
	return b.String()
}

// scanString returns the index one past the closing quote of the string
// starting at start. A backslash consumes itself plus the next character,
// whatever it is. An unterminated string closes at end of input.
func scanString(text string, start int) int {
	j := start + 1
	for j < len(text) {
		switch text[j] {
		case '\\':
			j += 2
		case '"':
			return j + 1
		default:
			j++
		}
	}
	return len(text)
}

// classifyQuoted decides key vs string by peeking past any whitespace that
// follows the closing quote: a bare ':' next makes it an object key. The
// peeked whitespace is not consumed; the main loop emits it as its own token
// right after the quoted one, keeping the stream in input byte order.
func classifyQuoted(text string, end int) Kind {
	k := end
	for k < len(text) && isSpace(text[k]) {
		k++
	}
	if k < len(text) && text[k] == ':' {
		return KindKey
	}
	return KindString
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isNumberChar is intentionally permissive: runs like "1--2" or "1.2.3" lex
// as one number token. Validation is the pretty-printer's job, not the lexer's.
func isNumberChar(c byte) bool {
	return isDigit(c) || c == '-' || c == '+' || c == 'e' || c == 'E' || c == '.'
}

func isPunct(c byte) bool {
	switch c {
	case '{', '}', '[', ']', ':', ',':
		return true
	}
	return false
}

// hasLiteral reports a fixed-substring match at position i. Deliberately not
// word-boundary aware: "nullable" lexes as the literal "null" followed by
// raw characters.
func hasLiteral(text string, i int, lit string) bool {
	return len(text)-i >= len(lit) && text[i:i+len(lit)] == lit
}
