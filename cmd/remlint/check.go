package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blake.io/remlint"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [FILE...]",
		Short: "Report problems in Remfiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.files(args)
			if err != nil {
				return err
			}
			return a.check(files)
		},
	}
}

// report is one diagnostic in JSON output. Lines and columns are
// 1-indexed.
type report struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine"`
	EndColumn int    `json:"endColumn"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

func (a *app) check(files []string) error {
	reports := []report{}
	for _, name := range files {
		diags, err := validateFile(name)
		if err != nil {
			return err
		}
		a.log.Debug("checked", "file", name, "diagnostics", len(diags))
		for _, d := range diags {
			reports = append(reports, report{
				File:      name,
				Line:      d.StartLine + 1,
				Column:    d.StartColumn + 1,
				EndLine:   d.EndLine + 1,
				EndColumn: d.EndColumn + 1,
				Severity:  d.Severity.String(),
				Message:   d.Message,
			})
			if a.format == "text" {
				fmt.Fprintf(a.stdout, "%s:%s\n", name, d)
			}
		}
	}
	switch a.format {
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	case "html":
		if err := renderHTML(a.stdout, reports); err != nil {
			return err
		}
	}
	if len(reports) > 0 {
		a.log.Warn("problems found", "count", len(reports))
		return exitError{1}
	}
	return nil
}

func validateFile(name string) ([]remlint.Diagnostic, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := remlint.ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return remlint.Validate(doc), nil
}
