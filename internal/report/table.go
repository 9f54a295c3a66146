package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"envin/internal/preset"
	"envin/internal/resolver"
	"envin/internal/standard"
)

// Status summarizes one variable in the table.
type Status string

const (
	StatusOK      Status = "ok"
	StatusDefault Status = "default"
	StatusUnset   Status = "unset"
	StatusInvalid Status = "invalid"
)

// Row is one variable of `envin vars`.
type Row struct {
	Key         string   `json:"key"`
	Preset      string   `json:"preset"`
	Group       string   `json:"group"`
	Default     string   `json:"default,omitempty"`
	HasDefault  bool     `json:"hasDefault"`
	Description string   `json:"description,omitempty"`
	Files       []string `json:"files,omitempty"`
	Present     bool     `json:"present"`
	Status      Status   `json:"status"`
	Issue       string   `json:"issue,omitempty"`
}

// Rows joins the merged declarations with the raw source and the issues of
// a validation run. src may be nil.
func Rows(vars []preset.Variable, src *resolver.Source, issues standard.Issues) []Row {
	rows := make([]Row, 0, len(vars))
	for _, v := range vars {
		row := Row{
			Key:         v.Key,
			Preset:      v.Preset,
			Group:       string(v.Group),
			HasDefault:  v.HasDefault,
			Description: v.Description,
		}
		if v.HasDefault {
			row.Default = fmt.Sprint(v.Default)
		}
		if src != nil {
			if val, ok := src.Values[v.Key]; ok && val != "" {
				row.Present = true
			}
			row.Files = append([]string(nil), src.Origins[v.Key]...)
		}

		switch own := issues.ForVariable(v.Key); {
		case len(own) > 0:
			row.Status = StatusInvalid
			row.Issue = FormatIssue(own[0])
		case row.Present:
			row.Status = StatusOK
		case row.HasDefault:
			row.Status = StatusDefault
		default:
			row.Status = StatusUnset
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteTable prints rows as aligned columns.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tPRESET\tGROUP\tSTATUS\tDEFAULT\tFILES\tDESCRIPTION")
	for _, r := range rows {
		status := string(r.Status)
		if r.Issue != "" {
			status += " (" + r.Issue + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Key, r.Preset, r.Group, status, dash(r.Default), dash(strings.Join(r.Files, ",")), r.Description)
	}
	return tw.Flush()
}

// WriteDefaults prints resolved defaults as sorted KEY=value lines. Keys
// without a default are left out.
func WriteDefaults(w io.Writer, values map[string]any) {
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s=%v\n", k, values[k])
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
