// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package highlight

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		`{"a":"b"}`,
		`{"a" : "b", "n": -2.5e10}`,
		"plain log line: pod restarted 3 times\n",
		`{"broken": "no close`,
		`"trailing backslash\`,
		`{"esc":"a\"b\\c\nd"}`,
		"nullable truefalse nulls",
		"1--2 1.2.3 -+e..E",
		"  \t\r\n  mixed \n text {" + `"k"` + " : 1}",
		`[{"deep":[true,false,null]},"x"]`,
	}
	for _, in := range inputs {
		got := Join(Tokenize(in))
		if got != in {
			t.Errorf("round trip mismatch for %q: got %q", in, got)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if toks := Tokenize(""); len(toks) != 0 {
		t.Errorf("expected no tokens for empty input, got %d", len(toks))
	}
}

func TestKeyVsStringClassification(t *testing.T) {
	toks := Tokenize(`{"a":"b"}`)
	kinds := map[string]Kind{}
	for _, tok := range toks {
		kinds[tok.Text] = tok.Kind
	}
	if kinds[`"a"`] != KindKey {
		t.Errorf(`expected "a" classified as key, got %s`, kinds[`"a"`])
	}
	if kinds[`"b"`] != KindString {
		t.Errorf(`expected "b" classified as string, got %s`, kinds[`"b"`])
	}
}

func TestKeyLookaheadSkipsWhitespace(t *testing.T) {
	toks := Tokenize("{\"a\" \t : 1}")
	if len(toks) < 3 {
		t.Fatalf("unexpected token count %d", len(toks))
	}
	// The quoted token comes first, its trailing whitespace right after:
	// byte order is preserved even though classification peeked ahead.
	if toks[1].Kind != KindKey || toks[1].Text != `"a"` {
		t.Errorf("expected key token second, got %+v", toks[1])
	}
	if toks[2].Kind != KindWhitespace || toks[2].Text != " \t " {
		t.Errorf("expected whitespace token after the key, got %+v", toks[2])
	}
}

func TestLiteralAndNumberLexing(t *testing.T) {
	toks := Tokenize(`[1, -2.5e10, true, false, null]`)
	var got []Token
	for _, tok := range toks {
		if tok.Kind == KindWhitespace || tok.Kind == KindPunctuation {
			continue
		}
		got = append(got, tok)
	}
	want := []Token{
		{KindNumber, "1"},
		{KindNumber, "-2.5e10"},
		{KindBoolean, "true"},
		{KindBoolean, "false"},
		{KindNull, "null"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d value tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestLiteralNotWordBoundaryAware(t *testing.T) {
	toks := Tokenize("nullable")
	if toks[0].Kind != KindNull || toks[0].Text != "null" {
		t.Fatalf("expected leading null literal, got %+v", toks[0])
	}
	rest := Join(toks[1:])
	if rest != "able" {
		t.Errorf("expected remainder %q, got %q", "able", rest)
	}
	for _, tok := range toks[1:] {
		if tok.Kind != KindRaw || len(tok.Text) != 1 {
			t.Errorf("expected single-char raw tokens after literal, got %+v", tok)
		}
	}
}

func TestPermissiveNumberRun(t *testing.T) {
	toks := Tokenize("1--2")
	if len(toks) != 1 || toks[0].Kind != KindNumber || toks[0].Text != "1--2" {
		t.Errorf("expected one permissive number token, got %v", toks)
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := Tokenize(`{"open`)
	last := toks[len(toks)-1]
	if last.Kind != KindString || last.Text != `"open` {
		t.Errorf("expected partial string emitted as-is, got %+v", last)
	}
	if Join(toks) != `{"open` {
		t.Errorf("round trip broken for unterminated string")
	}
}

func TestEscapeConsumesNextCharacter(t *testing.T) {
	in := `"a\"b"`
	toks := Tokenize(in)
	if len(toks) != 1 || toks[0].Text != in {
		t.Errorf("escaped quote should not close the string: %v", toks)
	}
	// An arbitrary character after the backslash is accepted uninterpreted.
	in = `"a\qb"`
	toks = Tokenize(in)
	if len(toks) != 1 || toks[0].Text != in {
		t.Errorf("unknown escape should be consumed verbatim: %v", toks)
	}
}

func TestNonJSONDegradesToRaw(t *testing.T) {
	toks := Tokenize("pod/web-0 CrashLoopBackOff")
	if Join(toks) != "pod/web-0 CrashLoopBackOff" {
		t.Fatalf("round trip broken for free text")
	}
	sawRaw := false
	for _, tok := range toks {
		if tok.Kind == KindRaw {
			sawRaw = true
		}
	}
	if !sawRaw {
		t.Errorf("expected raw tokens in free text, got %v", toks)
	}
}

func TestRawTokensKeepMultiByteRunesWhole(t *testing.T) {
	toks := Tokenize("é")
	if len(toks) != 1 || toks[0].Kind != KindRaw || toks[0].Text != "é" {
		t.Fatalf("expected one raw token holding the full rune, got %v", toks)
	}

	in := "pod Ünïcode — 'ü'"
	toks = Tokenize(in)
	if Join(toks) != in {
		t.Fatalf("round trip broken for non-ASCII text")
	}
	for _, tok := range toks {
		if !utf8.ValidString(tok.Text) {
			t.Errorf("token text is not valid UTF-8: %q", tok.Text)
		}
		if tok.Kind == KindRaw && utf8.RuneCountInString(tok.Text) != 1 {
			t.Errorf("raw token should hold exactly one rune, got %q", tok.Text)
		}
	}
}

func TestTokenizeInvalidUTF8StillRoundTrips(t *testing.T) {
	in := "a\xc3b\xff{"
	toks := Tokenize(in)
	if Join(toks) != in {
		t.Errorf("round trip broken for invalid UTF-8 bytes")
	}
}

func TestWhitespaceRunsCoalesce(t *testing.T) {
	toks := Tokenize(" \t\n\r ")
	if len(toks) != 1 || toks[0].Kind != KindWhitespace {
		t.Errorf("expected one whitespace token, got %v", toks)
	}
}

func TestTokenizeLargeInputStaysLinear(t *testing.T) {
	in := strings.Repeat(`{"k": [1, true, "v"]}`+"\n", 2000)
	if Join(Tokenize(in)) != in {
		t.Errorf("round trip broken on large input")
	}
}
