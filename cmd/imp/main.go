// Command imp imports issues, labels, and organization members from a JSON
// export into GitHub.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openstax-kanban/issue-importer/internal/config"
	"github.com/openstax-kanban/issue-importer/internal/debug"
	"github.com/openstax-kanban/issue-importer/internal/github"
	"github.com/openstax-kanban/issue-importer/internal/importer"
	"github.com/openstax-kanban/issue-importer/internal/telemetry"
	"github.com/openstax-kanban/issue-importer/internal/ui"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	cfgFile     string
	verboseFlag bool
	quietFlag   bool
	jsonOutput  bool
	noColor     bool

	// Resolved in PersistentPreRunE.
	v   *viper.Viper
	cfg *config.Config
)

// flagKeys maps command-line flags onto configuration keys. A flag only
// overrides the config file and environment when it is set explicitly.
var flagKeys = map[string]string{
	"api-url":           config.KeyGitHubAPIURL,
	"issues_file":       config.KeyIssuesFile,
	"created-at":        config.KeyIssuesCreated,
	"labels_file":       config.KeyLabelsFile,
	"continue-on-error": config.KeyLabelsContinue,
	"skip":              config.KeyMembersSkip,
	"role":              config.KeyMembersRole,
}

// newRemote builds the client used by the import commands.
var newRemote = func(cfg *config.Config) (importer.Remote, error) {
	client, err := github.NewClient(github.Options{
		User:            cfg.GitHub.User,
		Password:        cfg.GitHub.Password,
		BaseURL:         cfg.GitHub.APIURL,
		RetryMaxElapsed: cfg.GitHub.RetryMaxElapsed,
		MemberRole:      cfg.Members.Role,
	})
	if err != nil {
		return nil, err
	}
	debug.Logf("GitHub API at %s\n", client.BaseURL())
	return telemetry.WrapRemote(client), nil
}

// initTelemetry installs the OTel providers once credentials are known to be present.
var initTelemetry = telemetry.Init

var rootCmd = &cobra.Command{
	Use:   "imp",
	Short: "Import issues into a repository from a json file",
	Long: `Issue Importer: import issues, labels, and organization members into GitHub
from a JSON export.

Examples:
  imp issues openstax-kanban team1
  imp issues openstax-kanban team2 --issues_file trello.json
  imp labels openstax-kanban team3
  imp labels openstax-kanban team4 --labels_file labels.json
  imp members old-org new-org --dry

You will need to set GITHUB_USER and GITHUB_PASSWORD environment variables
in order to use this command line application.

Configuration may also be read from ./imp.yaml or $XDG_CONFIG_HOME/imp/config.yaml:
  github.user / GITHUB_USER            GitHub login
  github.password / GITHUB_PASSWORD    password or personal access token
  github.api-url / GITHUB_API_URL      GitHub Enterprise API URL
  issues.file, labels.file             default input files
  labels.continue-on-error             keep going after a failed label
  members.skip, members.role           member import tuning`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./imp.yaml, then $XDG_CONFIG_HOME/imp/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output the summary and errors as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("api-url", "", "GitHub Enterprise API URL (default api.github.com)")
}

// setup resolves configuration and checks credentials before any command does work.
func setup(cmd *cobra.Command, _ []string) error {
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)
	ui.ConfigureColor(noColor || jsonOutput)

	// Informational output moves to stderr in JSON mode so stdout stays parseable.
	if jsonOutput {
		debug.SetOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	} else {
		debug.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	if !needsCredentials(cmd) {
		return nil
	}

	v = config.New()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag --%s: %w", name, err)
			}
		}
	}

	used, err := config.ReadInConfig(v, cfgFile)
	if err != nil {
		return err
	}
	if used != "" {
		debug.Logf("using config file %s\n", used)
	}

	cfg, err = config.FromViper(v)
	if err != nil {
		return err
	}
	debug.Logf("github user %s, password %s\n", cfg.GitHub.User, config.MaskSecret(cfg.GitHub.Password))

	if err := cfg.Validate(); err != nil {
		return err
	}
	return initTelemetry(cmd.Context(), "imp", Version, cmd.ErrOrStderr())
}

// needsCredentials is false for cobra's built-in help and completion commands.
func needsCredentials(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", "__complete":
			return false
		}
	}
	return true
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command line and returns the process exit status.
func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = telemetry.Shutdown(shutdownCtx)

	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}
