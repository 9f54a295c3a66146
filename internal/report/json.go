package report

import (
	"io"

	json "github.com/goccy/go-json"

	"envin/internal/standard"
)

// IssueJSON is the JSON form of one issue.
type IssueJSON struct {
	Variable string `json:"variable"`
	Path     string `json:"path"`
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
}

// Check is the JSON document printed by `envin check --json`.
type Check struct {
	Valid   bool        `json:"valid"`
	Config  string      `json:"config"`
	Mode    string      `json:"mode"`
	Server  bool        `json:"server"`
	Skipped bool        `json:"skipped,omitempty"`
	Issues  []IssueJSON `json:"issues"`
	Error   string      `json:"error,omitempty"`
}

// IssuesJSON converts issues for JSON output. The result is never nil so
// an empty list encodes as [].
func IssuesJSON(issues standard.Issues) []IssueJSON {
	out := make([]IssueJSON, 0, len(issues))
	for _, it := range issues {
		out = append(out, IssueJSON{
			Variable: it.Variable(),
			Path:     it.PathString(),
			Message:  it.Message,
			Code:     it.Code,
		})
	}
	return out
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
