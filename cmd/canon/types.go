package main

import (
	"time"

	"github.com/jward/canon"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIAnnotation is a JSON-friendly annotation representation.
type CLIAnnotation struct {
	ID            int64  `json:"id"`
	File          string `json:"file,omitempty"`
	Line          int    `json:"line"`
	Col           int    `json:"col"`
	Owner         string `json:"owner"`
	Site          string `json:"site"`
	QualifiedName string `json:"qualified_name,omitempty"`
	Source        string `json:"source"`
	Canonical     string `json:"canonical"`
	Suppressed    bool   `json:"suppressed,omitempty"`
	RunID         string `json:"run_id,omitempty"`
}

// CLIReport is a JSON-friendly canonicalization report.
type CLIReport struct {
	RunID               string   `json:"run_id"`
	Files               int      `json:"files"`
	Annotations         int      `json:"annotations"`
	Changed             int      `json:"changed"`
	Suppressed          int      `json:"suppressed"`
	Errors              int      `json:"errors"`
	ChangedDeclarations []string `json:"changed_declarations,omitempty"`
}

// CLIRun is a JSON-friendly canonicalization run.
type CLIRun struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Files       int        `json:"files"`
	Annotations int        `json:"annotations"`
	Changed     int        `json:"changed"`
	Suppressed  int        `json:"suppressed"`
	Errors      int        `json:"errors"`
}

// CLIXMLEntry holds the canonical annotations of one external annotations
// target.
type CLIXMLEntry struct {
	Target      string   `json:"target"`
	Annotations []string `json:"annotations"`
}

func annotationToCLI(a *canon.Annotation, filePath string) CLIAnnotation {
	out := CLIAnnotation{
		ID:            a.ID,
		File:          filePath,
		Line:          a.Line,
		Col:           a.Col,
		Owner:         a.Owner,
		Site:          a.Site,
		QualifiedName: a.QualifiedName,
		Source:        a.Source,
		Canonical:     a.Canonical,
	}
	if a.RunID != nil {
		out.RunID = *a.RunID
		out.Suppressed = a.Canonical == ""
	}
	return out
}

func reportToCLI(r *canon.Report) CLIReport {
	return CLIReport{
		RunID:               r.RunID,
		Files:               r.Files,
		Annotations:         r.Annotations,
		Changed:             r.Changed,
		Suppressed:          r.Suppressed,
		Errors:              r.Errors,
		ChangedDeclarations: r.ChangedDeclarations,
	}
}

func runToCLI(r *canon.Run) CLIRun {
	return CLIRun{
		ID:          r.ID,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Files:       r.Files,
		Annotations: r.Annotations,
		Changed:     r.Changed,
		Suppressed:  r.Suppressed,
		Errors:      r.Errors,
	}
}
