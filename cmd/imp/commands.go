package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openstax-kanban/issue-importer/internal/debug"
	"github.com/openstax-kanban/issue-importer/internal/importer"
)

var issuesCmd = &cobra.Command{
	Use:   "issues <organization> <repository_name>",
	Short: "Import cards as issues",
	Long: `Import every card of the "cards" list in the issues file as an issue of
<organization>/<repository_name>. The repository must already exist.

Cards without a description use their name as the issue body. Issues are
imported with a creation time of now unless the card carries "created_at"
or --created-at is given (2016-09-01, RFC3339, -30d, "last monday").`,
	Args: cobra.ExactArgs(2),
	RunE: runIssues,
}

var labelsCmd = &cobra.Command{
	Use:   "labels <organization> <repository_name>",
	Short: "Create labels",
	Long: `Create every entry of the "labels" list in the labels file as a label of
<organization>/<repository_name>. The repository must already exist.

By default the first failed label stops the run. Use --continue-on-error
to report it and carry on.`,
	Args: cobra.ExactArgs(2),
	RunE: runLabels,
}

var membersCmd = &cobra.Command{
	Use:   "members <from_organization> <to_organization>",
	Short: "Invite the members of one organization to another",
	Long: `Invite the members of <from_organization> to <to_organization>.

GitHub allows about 50 invitations per 24 hours, so the first --skip members
(default 49) are assumed to have been handled by an earlier run and are left
alone. Members rejected by the invite cap are reported and skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: runMembers,
}

var (
	issuesDryRun  bool
	labelsDryRun  bool
	membersDryRun bool
)

func init() {
	issuesCmd.Flags().StringP("issues_file", "i", "./issues.json", "The json data file with issues")
	issuesCmd.Flags().BoolVarP(&issuesDryRun, "dry", "d", false, "Do a dry run without importing issues to GitHub")
	issuesCmd.Flags().String("created-at", "", "Creation time for cards without one (default now)")

	labelsCmd.Flags().StringP("labels_file", "L", "./labels.json", "The json data file with labels")
	labelsCmd.Flags().BoolVarP(&labelsDryRun, "dry", "d", false, "Do a dry run without creating labels in GitHub")
	labelsCmd.Flags().Bool("continue-on-error", false, "Report a failed label and continue with the rest")

	membersCmd.Flags().BoolVarP(&membersDryRun, "dry", "d", false, "Do a dry run without inviting members")
	membersCmd.Flags().Int("skip", importer.DefaultMemberSkip, "Number of leading members to leave alone")
	membersCmd.Flags().String("role", "member", "Organization role for invited members (member or admin)")

	rootCmd.AddCommand(issuesCmd, labelsCmd, membersCmd)
}

func runIssues(cmd *cobra.Command, args []string) error {
	return runImport(cmd, importer.Request{
		Modes:      []importer.Mode{importer.ModeIssues},
		Owner:      args[0],
		Repo:       args[1],
		IssuesFile: cfg.Issues.File,
		DryRun:     issuesDryRun,
	})
}

func runLabels(cmd *cobra.Command, args []string) error {
	return runImport(cmd, importer.Request{
		Modes:      []importer.Mode{importer.ModeLabels},
		Owner:      args[0],
		Repo:       args[1],
		LabelsFile: cfg.Labels.File,
		DryRun:     labelsDryRun,
	})
}

func runMembers(cmd *cobra.Command, args []string) error {
	return runImport(cmd, importer.Request{
		Modes:   []importer.Mode{importer.ModeMembers},
		FromOrg: args[0],
		ToOrg:   args[1],
		DryRun:  membersDryRun,
	})
}

// runImport executes one request against the configured remote and prints the summary.
func runImport(cmd *cobra.Command, req importer.Request) error {
	remote, err := newRemote(cfg)
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}

	// Progress goes to stdout, or stderr under --json. Warnings about skipped
	// records still reach stderr under --quiet.
	out := cmd.OutOrStdout()
	if jsonOutput {
		out = cmd.ErrOrStderr()
	}
	warnOut := out
	if debug.IsQuiet() {
		out = nil
		warnOut = cmd.ErrOrStderr()
	}

	opts := importer.Options{
		MemberSkip:           cfg.Members.Skip,
		ContinueOnLabelError: cfg.Labels.ContinueOnError,
		CreatedAt:            cfg.Issues.CreatedAt,
	}
	debug.Logf("running %v (dry=%v, options=%+v)\n", req.Modes, req.DryRun, opts)

	im := importer.New(remote, opts, out)
	im.WarnOut = warnOut
	result, err := im.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	if debug.IsQuiet() && !jsonOutput {
		return nil
	}
	return printSummary(cmd.OutOrStdout(), result)
}
