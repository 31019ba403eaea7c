package policy

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// lintShellSyntax advisory-parses a command pattern as POSIX shell
// syntax, returning a short diagnostic if it would not parse. Patterns
// containing "#" are skipped: they are not shell syntax, they are
// digit-run wildcards, and parsing them as shell is meaningless.
func lintShellSyntax(cmd string) string {
	if strings.ContainsRune(cmd, '#') {
		return ""
	}
	parser := syntax.NewParser()
	if _, err := parser.Parse(strings.NewReader(cmd), ""); err != nil {
		return err.Error()
	}
	return ""
}
