// Package ccs classifies and parses Conventional Commits subject lines.
//
// A compliant subject line has the shape:
//
//	type[(scope)][!]: description
//
// Only the first line of a commit message is ever inspected.
package ccs

import (
	"regexp"
	"strings"
)

// subjectPattern is the compliance grammar. The type token accepts any run of
// letters (case-insensitive), the scope is optional and non-greedy, the
// breaking-change marker is optional, and the description must contain at
// least one character after the separating whitespace.
var subjectPattern = regexp.MustCompile(`(?i)^[a-z]+(\(.+?\))?!?:\s.+`)

// Classify reports whether the commit message's subject line follows the
// Conventional Commits format. Blank or empty messages are not compliant;
// no input ever produces an error.
func Classify(message string) bool {
	if strings.TrimSpace(message) == "" {
		return false
	}
	return subjectPattern.MatchString(strings.TrimSpace(SubjectLine(message)))
}

// SubjectLine returns the first line of a commit message.
func SubjectLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
