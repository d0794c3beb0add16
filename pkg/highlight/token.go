// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

// Package highlight turns evidence blobs into classified token streams for
// syntax-colored rendering. It is a lexer, not a parser: any input, including
// malformed JSON or plain log text, produces some token sequence, and
// concatenating the tokens always reproduces the input byte for byte.
package highlight

// Kind classifies a token for styling.
type Kind string

const (
	KindWhitespace  Kind = "whitespace"
	KindKey         Kind = "key"
	KindString      Kind = "string"
	KindNumber      Kind = "number"
	KindBoolean     Kind = "boolean"
	KindNull        Kind = "null"
	KindPunctuation Kind = "punctuation"
	KindRaw         Kind = "raw"
)

// Token is a classified substring of the input. Immutable once produced.
type Token struct {
	Kind Kind
	Text string
}
