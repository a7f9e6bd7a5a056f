package ccs

import (
	"regexp"
	"strings"
)

var (
	scopedPrefix = regexp.MustCompile(`^([A-Za-z]+)\(`)
	unscopedLine = regexp.MustCompile(`^([A-Za-z]+)!?:\s*.+`)
)

// Parse extracts the type and scope from a Conventional Commits subject
// line. The type is lower-cased; an absent (or empty) scope is returned as
// the empty string. Lines that parse under neither grammar return two empty
// strings.
//
// Two grammars are handled distinctly:
//
//   - Scoped: "type(scope)!: description". The matching closing parenthesis
//     is located by counting nested pairs, so a scope may itself contain
//     parentheses. After the closing parenthesis, the next non-space
//     characters must be "!:" or ":".
//   - Unscoped: "type!: description".
//
// The scoped grammar is tried first. If its parenthesis prefix matches but
// the closing-delimiter validation fails, the line is rejected outright; it
// is never re-tried against the unscoped grammar.
func Parse(message string) (string, string) {
	if strings.TrimSpace(message) == "" {
		return "", ""
	}
	first := strings.TrimSpace(SubjectLine(message))

	if m := scopedPrefix.FindStringSubmatch(first); m != nil {
		return parseScoped(first, strings.ToLower(m[1]))
	}

	if m := unscopedLine.FindStringSubmatch(first); m != nil {
		return strings.ToLower(m[1]), ""
	}
	return "", ""
}

func parseScoped(line, typ string) (string, string) {
	start := len(typ) + 1 // first character inside the opening parenthesis

	depth := 1
	end := -1
	for i := start; i < len(line); i++ {
		switch line[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return "", ""
	}

	rest := strings.TrimLeft(line[end+1:], " \t")
	if !strings.HasPrefix(rest, "!:") && !strings.HasPrefix(rest, ":") {
		return "", ""
	}
	return typ, line[start:end]
}
