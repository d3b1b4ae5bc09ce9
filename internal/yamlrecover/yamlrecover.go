// Package yamlrecover extracts and parses YAML that an external
// conversational agent embedded in otherwise free-form text — usually
// wrapped in a fenced code block, sometimes preceded by a document
// separator the agent's own template added.
package yamlrecover

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	fencedYAML = regexp.MustCompile("(?s)```ya?ml[ \\t]*\\r?\\n(.*?)\\r?\\n```")
	fencedAny  = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*[ \\t]*\\r?\\n(.*?)\\r?\\n```")
)

// ErrDuplicateKey is wrapped into a parse error when the same mapping key
// appears twice in one YAML document.
var ErrDuplicateKey = errors.New("duplicate key")

// previewLen is the maximum length of the offending-source preview
// attached to a parse error.
const previewLen = 500

// ExtractYAML returns the content of the first fenced block tagged yaml
// (```yaml or ```yml); failing that, the first untagged fenced block;
// failing that, the whole input. A single leading "---" document
// separator is stripped, and the result is trimmed.
func ExtractYAML(text string) string {
	if m := fencedYAML.FindStringSubmatch(text); m != nil {
		return stripLeadingSeparator(strings.TrimSpace(m[1]))
	}
	if m := fencedAny.FindStringSubmatch(text); m != nil {
		return stripLeadingSeparator(strings.TrimSpace(m[1]))
	}
	return stripLeadingSeparator(strings.TrimSpace(text))
}

func stripLeadingSeparator(s string) string {
	first, rest, hasRest := strings.Cut(s, "\n")
	if strings.TrimSpace(first) != "---" {
		return s
	}
	if !hasRest {
		return ""
	}
	return strings.TrimSpace(rest)
}

// ParseMulti splits text on lines exactly equal to "---", trims each
// resulting document, and parses each non-empty one into a T. Parse
// errors are wrapped with a truncated preview of the offending document
// and, for duplicate mapping keys, an explicit flag in the message.
func ParseMulti[T any](text string) ([]T, error) {
	var docs []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "---" {
			docs = append(docs, strings.Join(current, "\n"))
			current = nil
			continue
		}
		current = append(current, line)
	}
	docs = append(docs, strings.Join(current, "\n"))

	results := make([]T, 0, len(docs))
	for _, doc := range docs {
		trimmed := strings.TrimSpace(doc)
		if trimmed == "" {
			continue
		}

		if err := checkDuplicateKeys(trimmed); err != nil {
			return nil, wrapParseError(trimmed, err)
		}

		var v T
		if err := yaml.Unmarshal([]byte(trimmed), &v); err != nil {
			return nil, wrapParseError(trimmed, err)
		}
		results = append(results, v)
	}
	return results, nil
}

func wrapParseError(source string, cause error) error {
	preview := source
	truncated := false
	if len(preview) > previewLen {
		preview = preview[:previewLen]
		truncated = true
	}
	suffix := ""
	if truncated {
		suffix = "..."
	}
	return fmt.Errorf("parsing yaml document: %w (source preview: %q%s)", cause, preview, suffix)
}

// checkDuplicateKeys reports ErrDuplicateKey if any mapping in doc repeats
// a key. yaml.v3's own decoder silently prefers the last occurrence, which
// hides a common agent-formatting mistake (the same field emitted twice by
// a verbose synthesizer), so conductor flags it explicitly before handing
// the document to the caller's real Unmarshal.
func checkDuplicateKeys(doc string) error {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &node); err != nil {
		// Malformed YAML surfaces from the real parse below; nothing to flag here.
		return nil
	}
	return walkDuplicates(&node)
}

func walkDuplicates(node *yaml.Node) error {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			if err := walkDuplicates(child); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		seen := make(map[string]bool, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind == yaml.ScalarNode {
				if seen[key.Value] {
					return fmt.Errorf("%w: %q", ErrDuplicateKey, key.Value)
				}
				seen[key.Value] = true
			}
			if err := walkDuplicates(node.Content[i+1]); err != nil {
				return err
			}
		}
	}
	return nil
}
