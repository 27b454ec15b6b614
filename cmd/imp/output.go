package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/openstax-kanban/issue-importer/internal/config"
	"github.com/openstax-kanban/issue-importer/internal/importer"
	"github.com/openstax-kanban/issue-importer/internal/types"
	"github.com/openstax-kanban/issue-importer/internal/ui"
)

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// reportError prints a fatal error, as JSON when --json is set.
func reportError(w io.Writer, err error) {
	msg := userMessage(err)
	if jsonOutput {
		_ = outputJSON(w, map[string]string{
			"error": msg,
			"code":  types.ErrorCode(err),
		})
		return
	}
	_, _ = fmt.Fprintln(w, ui.Failure("Error: "+msg))
}

// userMessage replaces low-level detail with the guidance a user can act on.
func userMessage(err error) string {
	switch {
	case errors.Is(err, importer.ErrRepositoryMissing):
		return importer.ErrRepositoryMissing.Error()
	case config.IsMissingCredentials(err):
		return "You need to set GITHUB_USER and GITHUB_PASSWORD environment variables"
	default:
		return err.Error()
	}
}

// printSummary prints one line per pipeline that ran.
func printSummary(w io.Writer, r *importer.Result) error {
	if jsonOutput {
		return outputJSON(w, r)
	}

	pipelines := []struct {
		name  string
		stats *importer.PipelineStats
	}{
		{"issues", r.Issues},
		{"labels", r.Labels},
		{"members", r.Members},
	}
	for _, p := range pipelines {
		if p.stats == nil {
			continue
		}
		line := summaryLine(p.name, p.stats, r.DryRun)
		if p.stats.Warnings > 0 {
			_, _ = fmt.Fprintln(w, ui.Warning(line))
		} else if r.DryRun {
			_, _ = fmt.Fprintln(w, ui.DryRun(line))
		} else {
			_, _ = fmt.Fprintln(w, ui.Success(line))
		}
	}
	return nil
}

func summaryLine(name string, s *importer.PipelineStats, dry bool) string {
	var line string
	if dry {
		line = fmt.Sprintf("%s: %d of %d would be imported (dry run)", name, s.DryRun, s.Total)
	} else {
		line = fmt.Sprintf("%s: %d of %d imported", name, s.Imported, s.Total)
	}
	if s.Warnings > 0 {
		line += fmt.Sprintf(", %d failed", s.Warnings)
	}
	if s.Skipped > 0 {
		line += fmt.Sprintf(", %d skipped", s.Skipped)
	}
	return line
}
