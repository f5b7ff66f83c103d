// Package wikilink parses the typed-link micro-syntax [[id|title]] that
// embeds note references inside front matter values.
package wikilink

import (
	"regexp"
	"strings"
)

var linkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Parse extracts the target id and display title from the first [[...]]
// occurrence in raw. The title is optional; [[id]] yields an empty title.
// ok is false when raw contains no bracket pattern or an empty id.
func Parse(raw string) (id, title string, ok bool) {
	m := linkRe.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	inner := m[1]
	if i := strings.Index(inner, "|"); i >= 0 {
		id = strings.TrimSpace(inner[:i])
		title = strings.TrimSpace(inner[i+1:])
	} else {
		id = strings.TrimSpace(inner)
	}
	if id == "" {
		return "", "", false
	}
	return id, title, true
}

// ID returns the target id of the first link in raw, or "" when raw does
// not contain one.
func ID(raw string) string {
	id, _, _ := Parse(raw)
	return id
}

// IDs extracts one target id per entry, preserving order and skipping
// entries without the bracket pattern.
func IDs(raws []string) []string {
	var out []string
	for _, raw := range raws {
		if id, _, ok := Parse(raw); ok {
			out = append(out, id)
		}
	}
	return out
}

// ReplaceAll rewrites every [[...]] occurrence in s through repl.
// Occurrences without a usable id are left untouched.
func ReplaceAll(s string, repl func(id, title string) string) string {
	return linkRe.ReplaceAllStringFunc(s, func(m string) string {
		id, title, ok := Parse(m)
		if !ok {
			return m
		}
		return repl(id, title)
	})
}
