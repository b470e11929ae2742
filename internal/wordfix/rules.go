// Package wordfix resolves censored words in transcript files using an
// ordered substitution table.
package wordfix

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Rule replaces every occurrence of From with To.
type Rule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Table is applied rule by rule, in order. Keep keys lowercase: each rule
// also covers the capitalized form.
type Table []Rule

// DefaultTable returns the built-in censored-word table.
func DefaultTable() Table {
	return Table{
		{"f**k", "fuck"},
		{"f***ing", "fucking"},
		{"f*****g", "fucking"},
		{"f******", "fucking"},
		{"fuck***t", "fucking bullshit"},
		{"fuck***", "fucking"},
		{"fuck*d", "fucked"},
		{"f**ing", "fucking"},
		{"f*****", "fucker"},
		{"f***", "fuck"},
		{"f**", "fuck"},
		{"sh**", "shit"},
		{"s**t", "shit"},
		{"s***", "shit"},
		{"a**", "ass"},
		{"b**ch", "bitch"},
		{"b***h", "bitch"},
		{"c***", "cunt"},
		{"p***y", "pussy"},
		{"d**n", "damn"},
		{"****", "fuck"},
	}
}

// Apply runs every rule over text and returns the result.
func (t Table) Apply(text string) string {
	for _, r := range t {
		text = strings.ReplaceAll(text, strings.ToLower(r.From), strings.ToLower(r.To))
		text = strings.ReplaceAll(text, capitalize(r.From), capitalize(r.To))
	}
	return text
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

// Conflict is a pair of keys where one contains the other.
type Conflict struct {
	// Inner is the key contained in Outer.
	Inner, Outer       Rule
	InnerPos, OuterPos int
	// Shadows is set when Inner runs first and so rewrites text Outer
	// was meant to match.
	Shadows bool
}

func (c Conflict) String() string {
	verb := "overlaps"
	if c.Shadows {
		verb = "shadows"
	}
	return fmt.Sprintf("rule %d %q %s rule %d %q", c.InnerPos+1, c.Inner.From, verb, c.OuterPos+1, c.Outer.From)
}

// Conflicts lists every pair of keys where one is a substring of the other.
func (t Table) Conflicts() []Conflict {
	var out []Conflict
	for i, a := range t {
		for j, b := range t {
			if i == j {
				continue
			}
			inner, outer := strings.ToLower(a.From), strings.ToLower(b.From)
			if inner == outer && i > j {
				continue
			}
			if !strings.Contains(outer, inner) {
				continue
			}
			out = append(out, Conflict{
				Inner:    a,
				Outer:    b,
				InnerPos: i,
				OuterPos: j,
				Shadows:  i < j,
			})
		}
	}
	return out
}

// Shadowing returns only the conflicts that change results.
func (t Table) Shadowing() []Conflict {
	var out []Conflict
	for _, c := range t.Conflicts() {
		if c.Shadows {
			out = append(out, c)
		}
	}
	return out
}

// Validate rejects empty keys.
func (t Table) Validate() error {
	for i, r := range t {
		if r.From == "" {
			return fmt.Errorf("rule %d has an empty key", i+1)
		}
	}
	return nil
}

type tableFile struct {
	Rules Table `yaml:"rules"`
}

// LoadTable reads a YAML file of the form
//
//	rules:
//	  - from: "f**k"
//	    to: "fuck"
func LoadTable(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var f tableFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s has no rules", path)
	}
	if err := f.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return f.Rules, nil
}
