// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package highlight

import (
	"strings"
	"testing"
)

func TestPrettyPrintIdempotent(t *testing.T) {
	inputs := []string{
		`{"b":1,"a":{"z":[1,2,3],"y":null}}`,
		`[true, false, null, -2.5e10, "s"]`,
		`{}`,
		`[]`,
		"not json at all",
		`{broken`,
		"",
	}
	for _, in := range inputs {
		once := PrettyPrint(in)
		twice := PrettyPrint(once)
		if once != twice {
			t.Errorf("pretty print not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestPrettyPrintNonJSONPassthrough(t *testing.T) {
	if got := PrettyPrint("hello world"); got != "hello world" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestPrettyPrintMalformedPassthrough(t *testing.T) {
	if got := PrettyPrint("{not valid"); got != "{not valid" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestPrettyPrintEmpty(t *testing.T) {
	if got := PrettyPrint(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestPrettyPrintTrailingGarbageRejected(t *testing.T) {
	in := `{"a":1} trailing`
	if got := PrettyPrint(in); got != in {
		t.Errorf("trailing content should force passthrough, got %q", got)
	}
}

func TestPrettyPrintIndentation(t *testing.T) {
	got := PrettyPrint(`{"a":1,"b":[true,null]}`)
	want := "{\n  \"a\": 1,\n  \"b\": [\n    true,\n    null\n  ]\n}"
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestPrettyPrintPreservesKeyOrder(t *testing.T) {
	got := PrettyPrint(`{"zebra":1,"apple":2,"mango":3}`)
	zi := strings.Index(got, "zebra")
	ai := strings.Index(got, "apple")
	mi := strings.Index(got, "mango")
	if !(zi < ai && ai < mi) {
		t.Errorf("insertion key order not preserved:\n%s", got)
	}
}

func TestPrettyPrintPreservesNumberLiterals(t *testing.T) {
	got := PrettyPrint(`{"big": 1234567890123456789, "exp": -2.5e10}`)
	if !strings.Contains(got, "1234567890123456789") {
		t.Errorf("large integer literal mangled:\n%s", got)
	}
	if !strings.Contains(got, "-2.5e10") {
		t.Errorf("exponent literal mangled:\n%s", got)
	}
}

func TestParseValueShapes(t *testing.T) {
	v, err := ParseValue(`{"s":"x","n":1,"b":true,"z":null,"a":[{}]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if v.Kind != ValueObject || len(v.Members) != 5 {
		t.Fatalf("unexpected top-level shape: %+v", v)
	}
	kinds := []ValueKind{ValueString, ValueNumber, ValueBool, ValueNull, ValueArray}
	for i, want := range kinds {
		if v.Members[i].Value.Kind != want {
			t.Errorf("member %d: expected kind %d, got %d", i, want, v.Members[i].Value.Kind)
		}
	}
	arr := v.Members[4].Value
	if len(arr.Items) != 1 || arr.Items[0].Kind != ValueObject {
		t.Errorf("nested array member wrong: %+v", arr)
	}
}

func TestParseValueRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "{", `{"a":}`, "[1,]", "tru"} {
		if _, err := ParseValue(in); err == nil {
			t.Errorf("expected parse error for %q", in)
		}
	}
}
