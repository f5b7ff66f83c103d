// Package frontmatter splits markdown content into a YAML metadata block and
// body text. Metadata keys are normalized to strings at every nesting level so
// downstream lookup is never representation-sensitive.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/othala/internal/apperr"
)

const delimiter = "---"

var (
	errUnterminated = errors.New("unterminated front matter block")
	errNotMapping   = errors.New("front matter is not a mapping")
)

// Parse splits raw markdown content into metadata and body.
//
// A front matter block is delimited by a leading "---" line and a closing
// "---" line. Content without a leading delimiter yields an empty metadata
// map and the entire content as body. A leading delimiter without a closing
// one, or a block that is not valid YAML, is an error.
func Parse(data []byte) (map[string]any, string, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || !isDelimiter(lines[0]) {
		return map[string]any{}, string(data), nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if isDelimiter(lines[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, "", errUnterminated
	}

	block := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")

	meta, err := decode([]byte(block))
	if err != nil {
		return nil, "", err
	}
	return meta, body, nil
}

// ParseFile reads path and parses its content. Read failures are returned
// as-is; parse failures are wrapped in a *apperr.ParseError naming the file.
func ParseFile(path string) (map[string]any, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	meta, body, err := Parse(data)
	if err != nil {
		return nil, "", &apperr.ParseError{Path: path, Err: err}
	}
	return meta, body, nil
}

// Render serializes metadata and body back into file content. An empty
// metadata map produces the body alone, without a front matter block.
func Render(meta map[string]any, body string) ([]byte, error) {
	if len(meta) == 0 {
		return []byte(body), nil
	}
	block, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	buf.Write(block)
	buf.WriteString(delimiter + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// isDelimiter reports whether line is exactly the delimiter, tolerating a
// trailing carriage return from CRLF files.
func isDelimiter(line string) bool {
	return strings.TrimRight(line, "\r") == delimiter
}

// decode unmarshals a YAML block into a string-keyed map.
func decode(block []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(block)) == 0 {
		return map[string]any{}, nil
	}
	var raw any
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	meta, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, errNotMapping
	}
	return meta, nil
}

// normalize rewrites every mapping in v to map[string]any, stringifying
// non-string keys (yaml.v3 falls back to map[any]any when a block contains
// numeric or boolean keys).
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
