package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/openstax-kanban/issue-importer/internal/types"
)

// fakeRemote records every call and fails the ones configured in errs,
// keyed by "<op>:<target>".
type fakeRemote struct {
	mu    sync.Mutex
	calls []string

	repos   map[string]*types.Repository
	orgs    map[string]*types.Organization
	members map[string][]string
	errs    map[string]error

	issues      []types.IssueRecord
	labels      []types.LabelRecord
	memberships []string
}

var _ Remote = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		repos: map[string]*types.Repository{
			"octo/widgets": {Owner: "octo", Name: "widgets", FullName: "octo/widgets"},
		},
		orgs: map[string]*types.Organization{
			"old-org": {Login: "old-org"},
			"new-org": {Login: "new-org"},
		},
		members: map[string][]string{},
		errs:    map[string]error{},
	}
}

func (f *fakeRemote) record(op, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := op + ":" + target
	f.calls = append(f.calls, key)
	return f.errs[key]
}

func (f *fakeRemote) mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		switch {
		case strings.HasPrefix(c, "import:"), strings.HasPrefix(c, "label:"), strings.HasPrefix(c, "membership:"):
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRemote) ResolveRepository(_ context.Context, owner, name string) (*types.Repository, error) {
	full := owner + "/" + name
	if err := f.record("repo", full); err != nil {
		return nil, err
	}
	repo, ok := f.repos[full]
	if !ok {
		return nil, &types.RemoteError{Op: "get repository", Target: full, Kind: types.ErrRemoteNotFound, Err: fmt.Errorf("404 Not Found")}
	}
	return repo, nil
}

func (f *fakeRemote) ResolveOrganization(_ context.Context, name string) (*types.Organization, error) {
	if err := f.record("org", name); err != nil {
		return nil, err
	}
	org, ok := f.orgs[name]
	if !ok {
		return nil, &types.RemoteError{Op: "get organization", Target: name, Kind: types.ErrRemoteNotFound, Err: fmt.Errorf("404 Not Found")}
	}
	return org, nil
}

func (f *fakeRemote) ImportIssue(_ context.Context, _ *types.Repository, issue types.IssueRecord) error {
	if err := f.record("import", issue.Title); err != nil {
		return err
	}
	f.mu.Lock()
	f.issues = append(f.issues, issue)
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) CreateLabel(_ context.Context, _ *types.Repository, label types.LabelRecord) error {
	if err := f.record("label", label.Name); err != nil {
		return err
	}
	f.mu.Lock()
	f.labels = append(f.labels, label)
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) ListMembers(_ context.Context, org *types.Organization) ([]string, error) {
	if err := f.record("members", org.Login); err != nil {
		return nil, err
	}
	return f.members[org.Login], nil
}

func (f *fakeRemote) AddOrUpdateMembership(_ context.Context, _ *types.Organization, login string) error {
	if err := f.record("membership", login); err != nil {
		return err
	}
	f.mu.Lock()
	f.memberships = append(f.memberships, login)
	f.mu.Unlock()
	return nil
}

func notFound(target string) error {
	return &types.RemoteError{Op: "test", Target: target, Kind: types.ErrRemoteNotFound, Err: fmt.Errorf("404 Not Found")}
}

func forbidden(target string) error {
	return &types.RemoteError{Op: "test", Target: target, Kind: types.ErrRemoteForbidden, Err: fmt.Errorf("403 Forbidden")}
}

func otherFailure(target string) error {
	return &types.RemoteError{Op: "test", Target: target, Err: fmt.Errorf("422 Validation Failed")}
}

func memberLogins(n int) []string {
	logins := make([]string, n)
	for i := range logins {
		logins[i] = fmt.Sprintf("user%02d", i)
	}
	return logins
}
