// Package report renders validation results for the terminal, for CI logs
// and as JSON.
package report

import (
	"fmt"
	"io"

	"envin/internal/standard"
)

// FormatIssue formats an issue into a human-readable message.
func FormatIssue(it standard.Issue) string {
	// A missing variable reads better without the adapter's wording.
	if it.Code == standard.CodeRequired && len(it.Path) == 1 {
		return fmt.Sprintf("%s: required but not set", it.Variable())
	}
	if it.PathString() == "" {
		return fmt.Sprintf("(root): %s", it.Message)
	}
	return it.String()
}

// FormatIssues formats every issue, preserving order.
func FormatIssues(issues standard.Issues) []string {
	messages := make([]string, len(issues))
	for i, it := range issues {
		messages[i] = FormatIssue(it)
	}
	return messages
}

// CIAnnotation formats an issue as a GitHub Actions error annotation.
func CIAnnotation(file string, it standard.Issue) string {
	return fmt.Sprintf("::error file=%s::%s", file, FormatIssue(it))
}

// WriteIssues prints issues one per line. In CI mode each line is an
// annotation against file and a summary follows.
func WriteIssues(w io.Writer, issues standard.Issues, ci bool, file string) {
	if ci {
		for _, it := range issues {
			fmt.Fprintln(w, CIAnnotation(file, it))
		}
		fmt.Fprintf(w, "\n❌ Validation failed: %d error(s)\n", len(issues))
		return
	}
	for _, msg := range FormatIssues(issues) {
		fmt.Fprintln(w, msg)
	}
}
