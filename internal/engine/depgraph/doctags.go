package depgraph

import (
	"strings"
	"unicode"
)

// TypeArgsTag is the doc-comment tag carrying element type hints for raw collections.
const TypeArgsTag = "gwt.typeArgs"

// ParseDocTags extracts "@tag value value..." entries from a doc comment. Each
// occurrence of a tag yields one value list. Parsing is lenient: comment markers are
// stripped, malformed lines are skipped and nothing is ever rejected.
func ParseDocTags(doc string) map[string][][]string {
	tags := make(map[string][][]string)
	var tag string
	var values []string

	flush := func() {
		if tag != "" {
			tags[tag] = append(tags[tag], values)
		}
		tag, values = "", nil
	}

	for line := range strings.Lines(doc) {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/**")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))

		for _, tok := range strings.Fields(line) {
			if strings.HasPrefix(tok, "@") && len(tok) > 1 {
				flush()
				tag = tok[1:]
				continue
			}
			if tag != "" {
				values = append(values, tok)
			}
		}
	}
	flush()

	return tags
}

// TypeHints returns the qualified type names named by TypeArgsTag entries of doc, in
// order of appearance. Only dotted names are returned; simple names cannot be bound
// without scope information.
func TypeHints(doc string) []string {
	if !strings.Contains(doc, "@"+TypeArgsTag) {
		return nil
	}

	var out []string
	for _, values := range ParseDocTags(doc)[TypeArgsTag] {
		for _, v := range values {
			for _, name := range strings.FieldsFunc(v, func(r rune) bool {
				return r == '<' || r == '>' || r == ',' || r == '[' || r == ']'
			}) {
				if isQualifiedName(name) {
					out = append(out, name)
				}
			}
		}
	}
	return out
}

func isQualifiedName(s string) bool {
	if !strings.Contains(s, ".") {
		return false
	}
	for part := range strings.SplitSeq(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			if i == 0 && !unicode.IsLetter(r) && r != '_' && r != '$' {
				return false
			}
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
				return false
			}
		}
	}
	return true
}
