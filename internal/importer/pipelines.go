package importer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openstax-kanban/issue-importer/internal/debug"
	"github.com/openstax-kanban/issue-importer/internal/types"
	"github.com/openstax-kanban/issue-importer/internal/ui"
)

// User-facing warnings for recovered remote failures.
const (
	issuePermissionWarning = "There was an error trying to import that issue, maybe permissions?"
	memberCapNotice        = "You will only be able to import 50 members in a 24 hour period"
	memberCapWarning       = "You may have hit the 50 invites per day restriction."
)

// ImportIssues imports each issue in order. A not-found failure on one issue is
// reported and the batch continues; any other failure stops the batch.
func (im *Importer) ImportIssues(ctx context.Context, repo *types.Repository, issues []types.IssueRecord, dryRun bool) (*PipelineStats, error) {
	stats := &PipelineStats{Total: len(issues)}

	for i, rec := range issues {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec = NormalizeIssue(rec, im.createdAt())

		if dryRun {
			im.printf("%s\n", ui.DryRun("would import issue: "+asJSON(rec)))
			stats.DryRun++
			continue
		}

		if debug.Enabled() {
			debug.Logf("importing issue %d/%d: %s\n", i+1, len(issues), asJSON(rec))
		}
		if err := im.Remote.ImportIssue(ctx, repo, rec); err != nil {
			if types.IsNotFound(err) {
				im.warn(fmt.Sprintf("%s (%q)", issuePermissionWarning, rec.Title))
				debug.Logf("import issue %q: %v\n", rec.Title, err)
				stats.Warnings++
				continue
			}
			return stats, fmt.Errorf("import issue %q: %w", rec.Title, err)
		}
		stats.Imported++
	}

	return stats, nil
}

// ImportLabels creates each label in order. Unless ContinueOnLabelError is set,
// the first failure stops the batch.
func (im *Importer) ImportLabels(ctx context.Context, repo *types.Repository, labels []types.LabelRecord, dryRun bool) (*PipelineStats, error) {
	stats := &PipelineStats{Total: len(labels)}

	for _, rec := range labels {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if dryRun {
			im.printf("%s\n", ui.DryRun("would create label: "+asJSON(rec)))
			stats.DryRun++
			continue
		}

		debug.Logf("creating label %s (%s)\n", rec.Name, rec.Color)
		if err := im.Remote.CreateLabel(ctx, repo, rec); err != nil {
			if im.Options.ContinueOnLabelError {
				im.warn(fmt.Sprintf("Could not create label %q: %v", rec.Name, err))
				stats.Warnings++
				continue
			}
			return stats, fmt.Errorf("create label %q: %w", rec.Name, err)
		}
		stats.Imported++
	}

	return stats, nil
}

// ImportMembers invites the members of from into to, leaving out the first
// Options.MemberSkip entries. A forbidden failure on one member is reported and
// the batch continues; any other failure stops the batch.
func (im *Importer) ImportMembers(ctx context.Context, from, to *types.Organization, dryRun bool) (*PipelineStats, error) {
	logins, err := im.Remote.ListMembers(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", from, err)
	}
	logins = MapMembers(logins)

	candidates := skipMembers(logins, im.Options.MemberSkip)
	stats := &PipelineStats{
		Total:   len(candidates),
		Skipped: len(logins) - len(candidates),
	}
	debug.Logf("%s has %d members, skipping the first %d\n", from, len(logins), stats.Skipped)

	if !dryRun && len(candidates) > 0 {
		im.warn(memberCapNotice)
	}

	for _, login := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if dryRun {
			im.printf("%s\n", ui.DryRun("would invite member: "+login))
			stats.DryRun++
			continue
		}

		if err := im.Remote.AddOrUpdateMembership(ctx, to, login); err != nil {
			if types.IsForbidden(err) {
				im.warn(fmt.Sprintf("%s (%s)", memberCapWarning, login))
				debug.Logf("membership %s: %v\n", login, err)
				stats.Warnings++
				continue
			}
			return stats, fmt.Errorf("add membership for %s: %w", login, err)
		}
		stats.Imported++
	}

	return stats, nil
}

// skipMembers returns logins[skip:], clamped to the slice bounds.
func skipMembers(logins []string, skip int) []string {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(logins) {
		return nil
	}
	return logins[skip:]
}

func asJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
