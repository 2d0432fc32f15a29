package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind is the JSON type of a schema node.
type Kind int

const (
	KindString Kind = iota
	KindArray
	KindObject
)

// Schema describes the JSON shape a structured completion must satisfy.
// Every object property is required.
type Schema struct {
	Name        string // response format name, top level only
	Kind        Kind
	Description string
	Properties  []Property
	Items       *Schema
}

// Property is one ordered field of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Object returns an object schema with the given ordered properties.
func Object(name string, props ...Property) *Schema {
	return &Schema{Name: name, Kind: KindObject, Properties: props}
}

// String returns a string schema.
func String(desc string) *Schema {
	return &Schema{Kind: KindString, Description: desc}
}

// ArrayOf returns an array schema.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Kind: KindArray, Items: items}
}

// Field pairs a property name with its schema.
func Field(name string, s *Schema) Property {
	return Property{Name: name, Schema: s}
}

// JSONSchema renders the schema as a JSON Schema document.
func (s *Schema) JSONSchema() map[string]any {
	out := map[string]any{}
	if s.Description != "" {
		out["description"] = s.Description
	}
	switch s.Kind {
	case KindString:
		out["type"] = "string"
	case KindArray:
		out["type"] = "array"
		if s.Items != nil {
			out["items"] = s.Items.JSONSchema()
		}
	case KindObject:
		props := map[string]any{}
		required := make([]string, 0, len(s.Properties))
		for _, p := range s.Properties {
			props[p.Name] = p.Schema.JSONSchema()
			required = append(required, p.Name)
		}
		out["type"] = "object"
		out["properties"] = props
		out["required"] = required
		out["additionalProperties"] = false
	}
	return out
}

// Validate checks a decoded JSON value against the schema.
func (s *Schema) Validate(v any) error {
	return s.validate(v, "$")
}

func (s *Schema) validate(v any, path string) error {
	switch s.Kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", path, v)
		}
	case KindArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", path, v)
		}
		if s.Items == nil {
			return nil
		}
		for i, item := range arr {
			if err := s.Items.validate(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, v)
		}
		for _, p := range s.Properties {
			fv, present := obj[p.Name]
			if !present {
				return fmt.Errorf("%s: missing field %q", path, p.Name)
			}
			if err := p.Schema.validate(fv, path+"."+p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Instruction is appended to prompts for providers without native schema enforcement.
func (s *Schema) Instruction() string {
	b, _ := json.MarshalIndent(s.JSONSchema(), "", "  ")
	return "Respond with ONLY a JSON object that matches this JSON Schema. Do not wrap it in code fences and do not add any other text.\n" + string(b)
}

// DecodeStructured parses a model's raw text answer, validates it against s and
// decodes it into out. Any failure is reported as ErrUnusable.
func DecodeStructured(raw string, s *Schema, out any) error {
	text := stripCodeBlock(raw)
	if text == "" {
		return fmt.Errorf("%w: empty response", ErrUnusable)
	}

	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		obj := findFirstJSON(text)
		if obj == "" {
			return fmt.Errorf("%w: no json object found (raw: %s)", ErrUnusable, truncate(text, 200))
		}
		if err := json.Unmarshal([]byte(obj), &generic); err != nil {
			return fmt.Errorf("%w: parse json: %v", ErrUnusable, err)
		}
		text = obj
	}
	if err := s.Validate(generic); err != nil {
		return fmt.Errorf("%w: %v", ErrUnusable, err)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnusable, err)
	}
	return nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// findFirstJSON returns the first balanced {...} span in s, ignoring braces inside strings.
func findFirstJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// truncate keeps at most n bytes of s without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
