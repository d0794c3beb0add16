// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package highlight

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ValueKind enumerates the closed set of JSON value shapes.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueNumber
	ValueString
	ValueArray
	ValueObject
)

// Member is one object entry. Order of members is insertion order.
type Member struct {
	Key   string
	Value Value
}

// Value is a parsed JSON value as a closed tagged union. Unlike a
// map[string]any round trip it preserves object key order and number
// literals exactly, so formatting it is deterministic.
type Value struct {
	Kind    ValueKind
	Bool    bool     // ValueBool
	Num     string   // ValueNumber, the source literal
	Str     string   // ValueString
	Items   []Value  // ValueArray
	Members []Member // ValueObject
}

// ParseValue parses s into a Value. Trailing non-whitespace content after the
// first value is an error.
func ParseValue(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := parseNext(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("trailing content after JSON value")
	}
	return v, nil
}

func parseNext(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t.String())
	case string:
		return Value{Kind: ValueString, Str: t}, nil
	case json.Number:
		return Value{Kind: ValueNumber, Num: t.String()}, nil
	case bool:
		return Value{Kind: ValueBool, Bool: t}, nil
	case nil:
		return Value{Kind: ValueNull}, nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder) (Value, error) {
	obj := Value{Kind: ValueObject}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := parseNext(dec)
		if err != nil {
			return Value{}, err
		}
		obj.Members = append(obj.Members, Member{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return Value{}, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder) (Value, error) {
	arr := Value{Kind: ValueArray}
	for dec.More() {
		item, err := parseNext(dec)
		if err != nil {
			return Value{}, err
		}
		arr.Items = append(arr.Items, item)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return Value{}, err
	}
	return arr, nil
}

// Format serializes the value with two-space indentation and insertion key
// order.
func (v Value) Format() string {
	var b strings.Builder
	v.write(&b, 0)
	return b.String()
}

func (v Value) write(b *strings.Builder, depth int) {
	switch v.Kind {
	case ValueNull:
		b.WriteString("null")
	case ValueBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case ValueNumber:
		b.WriteString(v.Num)
	case ValueString:
		b.WriteString(quoteString(v.Str))
	case ValueArray:
		if len(v.Items) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, item := range v.Items {
			writeIndent(b, depth+1)
			item.write(b, depth+1)
			if i < len(v.Items)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		writeIndent(b, depth)
		b.WriteByte(']')
	case ValueObject:
		if len(v.Members) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for i, m := range v.Members {
			writeIndent(b, depth+1)
			b.WriteString(quoteString(m.Key))
			b.WriteString(": ")
			m.Value.write(b, depth+1)
			if i < len(v.Members)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		writeIndent(b, depth)
		b.WriteByte('}')
	}
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}

func quoteString(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string cannot fail; keep the raw text if it ever does.
		return `"` + s + `"`
	}
	return string(out)
}

// PrettyPrint reindents s when it is valid JSON and returns it unchanged
// otherwise. Inputs that do not start with '{' or '[' skip the parse attempt
// entirely, so log lines pass through untouched. Never fails.
func PrettyPrint(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return s
	}
	v, err := ParseValue(trimmed)
	if err != nil {
		return s
	}
	return v.Format()
}
