package importer

import (
	"context"

	"github.com/openstax-kanban/issue-importer/internal/types"
)

// Remote is the hosting platform API as seen by an import run.
// Implementations classify failures so that errors.Is(err, types.ErrRemoteNotFound)
// and errors.Is(err, types.ErrRemoteForbidden) hold for 404 and 403 responses.
type Remote interface {
	ResolveRepository(ctx context.Context, owner, name string) (*types.Repository, error)
	ResolveOrganization(ctx context.Context, name string) (*types.Organization, error)

	ImportIssue(ctx context.Context, repo *types.Repository, issue types.IssueRecord) error
	CreateLabel(ctx context.Context, repo *types.Repository, label types.LabelRecord) error

	// ListMembers returns member logins in the order the platform lists them.
	ListMembers(ctx context.Context, org *types.Organization) ([]string, error)
	AddOrUpdateMembership(ctx context.Context, org *types.Organization, login string) error
}
