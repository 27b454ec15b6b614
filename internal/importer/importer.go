// Package importer replays an exported project (issues, labels, members) into a
// hosted repository through a Remote.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/openstax-kanban/issue-importer/internal/debug"
	"github.com/openstax-kanban/issue-importer/internal/source"
	"github.com/openstax-kanban/issue-importer/internal/types"
	"github.com/openstax-kanban/issue-importer/internal/ui"
)

// DefaultMemberSkip is the number of leading members a members run leaves alone.
// It matches the platform's cap of roughly 50 invitations per 24 hours: the first
// batch is assumed to have been handled by an earlier run.
const DefaultMemberSkip = 49

// ErrRepositoryMissing is returned when the target repository does not exist.
// The importer never creates repositories.
var ErrRepositoryMissing = errors.New("That repository was not found. You'll need to create it in GitHub first")

// Mode selects one import pipeline.
type Mode string

const (
	ModeIssues  Mode = "issues"
	ModeLabels  Mode = "labels"
	ModeMembers Mode = "members"
)

// order is the fixed execution order of pipelines within a run.
var order = map[Mode]int{ModeIssues: 0, ModeLabels: 1, ModeMembers: 2}

// Options tunes pipeline behavior. The zero value is not useful; start from DefaultOptions.
type Options struct {
	// MemberSkip is how many leading source members are not processed.
	MemberSkip int

	// ContinueOnLabelError contains label creation failures per record instead
	// of aborting the remaining labels.
	ContinueOnLabelError bool

	// CreatedAt, when set, replaces the current time for issues without a
	// creation timestamp of their own.
	CreatedAt time.Time
}

// DefaultOptions returns the historical behavior.
func DefaultOptions() Options {
	return Options{MemberSkip: DefaultMemberSkip}
}

// Request describes one run.
type Request struct {
	Modes []Mode

	Owner string // repository owner, for issues and labels
	Repo  string // repository name, for issues and labels

	FromOrg string // members source
	ToOrg   string // members destination

	IssuesFile string
	LabelsFile string

	DryRun bool
}

func (r Request) wants(m Mode) bool {
	for _, have := range r.Modes {
		if have == m {
			return true
		}
	}
	return false
}

// Importer runs import pipelines against a Remote. Progress meant for the user
// is written to Out and recovered per-record failures to WarnOut.
type Importer struct {
	Remote  Remote
	Options Options
	Out     io.Writer
	WarnOut io.Writer

	// Now supplies creation timestamps for issues that carry none.
	Now func() time.Time
}

// New creates an Importer.
func New(remote Remote, opts Options, out io.Writer) *Importer {
	if out == nil {
		out = io.Discard
	}
	return &Importer{
		Remote:  remote,
		Options: opts,
		Out:     out,
		WarnOut: out,
		Now:     time.Now,
	}
}

// plan holds everything prepared before the first remote call.
type plan struct {
	issues []types.IssueRecord
	labels []types.LabelRecord
}

// Run executes the requested pipelines in the order issues, labels, members.
// Input files are loaded and mapped before any remote call, so a bad file never
// causes a partial import.
func (im *Importer) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Modes) == 0 {
		return nil, fmt.Errorf("no import mode requested")
	}
	for _, m := range req.Modes {
		if _, ok := order[m]; !ok {
			return nil, fmt.Errorf("unknown import mode %q", m)
		}
	}
	modes := sortedModes(req.Modes)

	p, err := im.prepare(req)
	if err != nil {
		return nil, err
	}

	result := &Result{DryRun: req.DryRun}

	var repo *types.Repository
	if req.wants(ModeIssues) || req.wants(ModeLabels) {
		repo, err = im.Remote.ResolveRepository(ctx, req.Owner, req.Repo)
		if types.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %w", ErrRepositoryMissing, err)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve repository %s/%s: %w", req.Owner, req.Repo, err)
		}
		result.Repository = repo.String()
		im.printf("%s\n", ui.Info(fmt.Sprintf("The %s repository is available", repo)))
	}

	for _, mode := range modes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch mode {
		case ModeIssues:
			im.printf("%s\n", ui.RenderHeader("Importing issues ..."))
			stats, err := im.ImportIssues(ctx, repo, p.issues, req.DryRun)
			result.Issues = stats
			if err != nil {
				return result, err
			}
		case ModeLabels:
			im.printf("%s\n", ui.RenderHeader("Importing labels ..."))
			stats, err := im.ImportLabels(ctx, repo, p.labels, req.DryRun)
			result.Labels = stats
			if err != nil {
				return result, err
			}
		case ModeMembers:
			im.printf("%s\n", ui.RenderHeader("Importing members ..."))
			stats, err := im.runMembers(ctx, req)
			result.Members = stats
			if err != nil {
				return result, err
			}
		default:
			return result, fmt.Errorf("unknown import mode %q", mode)
		}
	}

	result.Warnings = collectWarnings(result)
	return result, nil
}

func (im *Importer) prepare(req Request) (*plan, error) {
	p := &plan{}

	if req.wants(ModeIssues) {
		src, err := source.Load(req.IssuesFile)
		if err != nil {
			return nil, err
		}
		if p.issues, err = MapIssues(src); err != nil {
			return nil, fmt.Errorf("%s: %w", req.IssuesFile, err)
		}
		debug.Logf("mapped %d issues from %s\n", len(p.issues), req.IssuesFile)
	}

	if req.wants(ModeLabels) {
		src, err := source.Load(req.LabelsFile)
		if err != nil {
			return nil, err
		}
		if p.labels, err = MapLabels(src); err != nil {
			return nil, fmt.Errorf("%s: %w", req.LabelsFile, err)
		}
		debug.Logf("mapped %d labels from %s\n", len(p.labels), req.LabelsFile)
	}

	return p, nil
}

func (im *Importer) runMembers(ctx context.Context, req Request) (*PipelineStats, error) {
	from, err := im.Remote.ResolveOrganization(ctx, req.FromOrg)
	if err != nil {
		return nil, fmt.Errorf("resolve organization %s: %w", req.FromOrg, err)
	}
	to, err := im.Remote.ResolveOrganization(ctx, req.ToOrg)
	if err != nil {
		return nil, fmt.Errorf("resolve organization %s: %w", req.ToOrg, err)
	}
	im.printf("%s\n", ui.Info(fmt.Sprintf("From organization: %s", from)))
	im.printf("%s\n", ui.Info(fmt.Sprintf("To organization:   %s", to)))

	return im.ImportMembers(ctx, from, to, req.DryRun)
}

func sortedModes(modes []Mode) []Mode {
	seen := make(map[Mode]bool, len(modes))
	out := make([]Mode, 0, len(modes))
	for _, m := range modes {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return order[out[i]] < order[out[j]]
	})
	return out
}

func collectWarnings(r *Result) []string {
	var warnings []string
	add := func(name string, s *PipelineStats) {
		if s != nil && s.Warnings > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: %d record(s) failed and were skipped", name, s.Warnings))
		}
	}
	add("issues", r.Issues)
	add("labels", r.Labels)
	add("members", r.Members)
	return warnings
}

// createdAt is the timestamp given to issues that carry none.
func (im *Importer) createdAt() time.Time {
	if !im.Options.CreatedAt.IsZero() {
		return im.Options.CreatedAt
	}
	return im.Now()
}

func (im *Importer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(im.Out, format, args...)
}

func (im *Importer) warn(msg string) {
	w := im.WarnOut
	if w == nil {
		w = im.Out
	}
	_, _ = fmt.Fprintln(w, ui.Warning(msg))
}
