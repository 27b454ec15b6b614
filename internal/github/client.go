// Package github implements the importer's Remote on top of the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v72/github"

	"github.com/openstax-kanban/issue-importer/internal/debug"
	"github.com/openstax-kanban/issue-importer/internal/importer"
	"github.com/openstax-kanban/issue-importer/internal/types"
)

// API configuration constants.
const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryMaxElapsed bounds retries of read-only lookups.
	DefaultRetryMaxElapsed = 30 * time.Second

	// DefaultMemberRole is the organization role given to imported members.
	DefaultMemberRole = "member"

	// MaxPageSize is the page size used when listing members.
	MaxPageSize = 100

	// MaxPages stops pagination on a misbehaving server.
	MaxPages = 1000
)

// Options configures a Client.
type Options struct {
	User     string // GitHub login
	Password string // password or personal access token

	// BaseURL points at a GitHub Enterprise API, e.g. https://github.example.com/api/v3/.
	// Empty means api.github.com.
	BaseURL string

	// HTTPClient supplies the underlying transport and timeout. Optional.
	HTTPClient *http.Client

	// RetryMaxElapsed bounds retries of read-only lookups. Zero disables retries.
	RetryMaxElapsed time.Duration

	// MemberRole is the role requested for imported members. Empty means "member".
	MemberRole string
}

// Client talks to GitHub with basic authentication.
type Client struct {
	api             *gh.Client
	retryMaxElapsed time.Duration
	memberRole      string
}

var _ importer.Remote = (*Client)(nil)

// NewClient creates a Client.
func NewClient(opts Options) (*Client, error) {
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: DefaultTimeout}
	}

	transport := &gh.BasicAuthTransport{
		Username:  opts.User,
		Password:  opts.Password,
		Transport: base.Transport,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   base.Timeout,
	}

	api := gh.NewClient(httpClient)
	if opts.BaseURL != "" {
		var err error
		api, err = api.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.BaseURL, err)
		}
	}

	role := opts.MemberRole
	if role == "" {
		role = DefaultMemberRole
	}

	return &Client{
		api:             api,
		retryMaxElapsed: opts.RetryMaxElapsed,
		memberRole:      role,
	}, nil
}

// BaseURL returns the API endpoint in use.
func (c *Client) BaseURL() string {
	return c.api.BaseURL.String()
}

// ResolveRepository looks up owner/name.
func (c *Client) ResolveRepository(ctx context.Context, owner, name string) (*types.Repository, error) {
	full := owner + "/" + name

	var repo *gh.Repository
	err := c.lookup(ctx, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		repo, resp, err = c.api.Repositories.Get(ctx, owner, name)
		return resp, err
	})
	if err != nil {
		return nil, classify("get repository", full, err)
	}

	debug.Logf("resolved repository %s (%s)\n", repo.GetFullName(), repo.GetHTMLURL())
	return &types.Repository{
		Owner:    firstNonEmpty(repo.GetOwner().GetLogin(), owner),
		Name:     firstNonEmpty(repo.GetName(), name),
		FullName: firstNonEmpty(repo.GetFullName(), full),
		HTMLURL:  repo.GetHTMLURL(),
	}, nil
}

// ResolveOrganization looks up an organization by login.
func (c *Client) ResolveOrganization(ctx context.Context, name string) (*types.Organization, error) {
	var org *gh.Organization
	err := c.lookup(ctx, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		org, resp, err = c.api.Organizations.Get(ctx, name)
		return resp, err
	})
	if err != nil {
		return nil, classify("get organization", name, err)
	}

	return &types.Organization{
		Login: firstNonEmpty(org.GetLogin(), name),
		Name:  org.GetName(),
	}, nil
}

// ImportIssue submits one issue to the issue import endpoint. The endpoint is
// asynchronous; a queued import counts as success.
func (c *Client) ImportIssue(ctx context.Context, repo *types.Repository, issue types.IssueRecord) error {
	req := &gh.IssueImportRequest{
		IssueImport: gh.IssueImport{
			Title: issue.Title,
			Body:  issue.Body,
		},
	}
	if !issue.CreatedAt.IsZero() {
		req.IssueImport.CreatedAt = &gh.Timestamp{Time: issue.CreatedAt}
	}

	resp, _, err := c.api.IssueImport.Create(ctx, repo.Owner, repo.Name, req)
	if err != nil {
		return classify("import issue", issue.Title, err)
	}
	debug.Logf("issue %q queued: status=%s url=%s\n", issue.Title, resp.GetStatus(), resp.GetURL())
	return nil
}

// CreateLabel creates one label.
func (c *Client) CreateLabel(ctx context.Context, repo *types.Repository, label types.LabelRecord) error {
	_, _, err := c.api.Issues.CreateLabel(ctx, repo.Owner, repo.Name, &gh.Label{
		Name:  gh.Ptr(label.Name),
		Color: gh.Ptr(strings.TrimPrefix(label.Color, "#")),
	})
	if err != nil {
		return classify("create label", label.Name, err)
	}
	return nil
}

// ListMembers returns every member login of org, following pagination.
func (c *Client) ListMembers(ctx context.Context, org *types.Organization) ([]string, error) {
	var logins []string
	opts := &gh.ListMembersOptions{ListOptions: gh.ListOptions{PerPage: MaxPageSize}}

	for page := 1; ; page++ {
		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}

		var users []*gh.User
		var resp *gh.Response
		err := c.lookup(ctx, func() (*gh.Response, error) {
			var err error
			users, resp, err = c.api.Organizations.ListMembers(ctx, org.Login, opts)
			return resp, err
		})
		if err != nil {
			return nil, classify("list members", org.Login, err)
		}

		for _, u := range users {
			logins = append(logins, u.GetLogin())
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return logins, nil
}

// AddOrUpdateMembership invites login to org, or updates an existing membership.
func (c *Client) AddOrUpdateMembership(ctx context.Context, org *types.Organization, login string) error {
	m, _, err := c.api.Organizations.EditOrgMembership(ctx, login, org.Login, &gh.Membership{
		Role: gh.Ptr(c.memberRole),
	})
	if err != nil {
		return classify("add membership", login, err)
	}
	debug.Logf("membership %s in %s: %s\n", login, org.Login, m.GetState())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
