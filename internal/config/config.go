// Package config resolves the settings of an import run from flags, environment,
// an optional YAML file, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/openstax-kanban/issue-importer/internal/timeparsing"
	"github.com/openstax-kanban/issue-importer/internal/types"
)

// Configuration keys.
const (
	KeyGitHubUser     = "github.user"
	KeyGitHubPassword = "github.password"
	KeyGitHubAPIURL   = "github.api-url"
	KeyGitHubRetry    = "github.retry-max-elapsed"
	KeyIssuesFile     = "issues.file"
	KeyIssuesCreated  = "issues.created-at"
	KeyLabelsFile     = "labels.file"
	KeyLabelsContinue = "labels.continue-on-error"
	KeyMembersSkip    = "members.skip"
	KeyMembersRole    = "members.role"
)

// Environment variables bound to keys. GITHUB_USER and GITHUB_PASSWORD are the
// historical names and are always honored.
var envBindings = map[string]string{
	KeyGitHubUser:     "GITHUB_USER",
	KeyGitHubPassword: "GITHUB_PASSWORD",
	KeyGitHubAPIURL:   "GITHUB_API_URL",
}

const (
	appName        = "imp"
	localFileName  = "imp.yaml"
	globalFileName = "config.yaml"
)

// Config is the resolved configuration of one run.
type Config struct {
	GitHub  GitHubConfig
	Issues  IssuesConfig
	Labels  LabelsConfig
	Members MembersConfig

	// File is the config file that was read, empty if none.
	File string
}

// GitHubConfig holds connection settings.
type GitHubConfig struct {
	User            string
	Password        string
	APIURL          string
	RetryMaxElapsed time.Duration
}

type IssuesConfig struct {
	File string

	// CreatedAt is the creation time given to cards without one. Zero means
	// the time of the import.
	CreatedAt time.Time
}

type LabelsConfig struct {
	File            string
	ContinueOnError bool
}

type MembersConfig struct {
	Skip int
	Role string
}

// New returns a viper instance with defaults and environment bindings applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault(KeyGitHubAPIURL, "")
	v.SetDefault(KeyGitHubRetry, 30*time.Second)
	v.SetDefault(KeyIssuesFile, "./issues.json")
	v.SetDefault(KeyIssuesCreated, "")
	v.SetDefault(KeyLabelsFile, "./labels.json")
	v.SetDefault(KeyLabelsContinue, false)
	v.SetDefault(KeyMembersSkip, 49)
	v.SetDefault(KeyMembersRole, "member")

	// IMP_MEMBERS_SKIP, IMP_LABELS_FILE, ...
	v.SetEnvPrefix("IMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

// ReadInConfig loads the config file. An explicit path must exist; otherwise
// ./imp.yaml and then $XDG_CONFIG_HOME/imp/config.yaml are tried, and finding
// neither is not an error. It returns the path read, or "".
func ReadInConfig(v *viper.Viper, explicit string) (string, error) {
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config %s: %w", explicit, err)
		}
		return explicit, nil
	}

	for _, candidate := range searchPaths() {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config %s: %w", candidate, err)
		}
		return candidate, nil
	}
	return "", nil
}

func searchPaths() []string {
	paths := []string{localFileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName, globalFileName))
	}
	return paths
}

// FromViper builds a Config from the current state of v. Values that do not
// parse as their key's type are errors rather than zero.
func FromViper(v *viper.Viper) (*Config, error) {
	retry, err := cast.ToDurationE(v.Get(KeyGitHubRetry))
	if err != nil {
		return nil, invalidValue(KeyGitHubRetry, v, "a duration such as 30s")
	}
	continueOnError, err := cast.ToBoolE(v.Get(KeyLabelsContinue))
	if err != nil {
		return nil, invalidValue(KeyLabelsContinue, v, "true or false")
	}
	skip, err := cast.ToIntE(v.Get(KeyMembersSkip))
	if err != nil {
		return nil, invalidValue(KeyMembersSkip, v, "a whole number")
	}

	cfg := &Config{
		GitHub: GitHubConfig{
			User:            strings.TrimSpace(v.GetString(KeyGitHubUser)),
			Password:        v.GetString(KeyGitHubPassword),
			APIURL:          strings.TrimSpace(v.GetString(KeyGitHubAPIURL)),
			RetryMaxElapsed: retry,
		},
		Issues: IssuesConfig{File: v.GetString(KeyIssuesFile)},
		Labels: LabelsConfig{
			File:            v.GetString(KeyLabelsFile),
			ContinueOnError: continueOnError,
		},
		Members: MembersConfig{
			Skip: skip,
			Role: v.GetString(KeyMembersRole),
		},
		File: v.ConfigFileUsed(),
	}

	if raw := strings.TrimSpace(v.GetString(KeyIssuesCreated)); raw != "" {
		t, err := timeparsing.Parse(raw, time.Now())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeyIssuesCreated, err)
		}
		cfg.Issues.CreatedAt = t.UTC()
	}

	if cfg.Members.Skip < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", KeyMembersSkip, cfg.Members.Skip)
	}
	if cfg.GitHub.RetryMaxElapsed < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %s", KeyGitHubRetry, cfg.GitHub.RetryMaxElapsed)
	}
	return cfg, nil
}

func invalidValue(key string, v *viper.Viper, want string) error {
	return fmt.Errorf("%s: invalid value %q, expected %s", key, fmt.Sprint(v.Get(key)), want)
}

// Validate checks that credentials are present.
func (c *Config) Validate() error {
	var missing []string
	if c.GitHub.User == "" {
		missing = append(missing, envBindings[KeyGitHubUser])
	}
	if c.GitHub.Password == "" {
		missing = append(missing, envBindings[KeyGitHubPassword])
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: You need to set GITHUB_USER and GITHUB_PASSWORD environment variables (missing %s)",
			types.ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// IsMissingCredentials reports whether err came from Validate.
func IsMissingCredentials(err error) bool {
	return errors.Is(err, types.ErrMissingCredentials)
}

// MaskSecret masks a password or token for display.
func MaskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
