package importer

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/openstax-kanban/issue-importer/internal/types"
	"github.com/openstax-kanban/issue-importer/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestImporter(remote Remote, opts Options) (*Importer, *bytes.Buffer) {
	ui.DisableColor()
	var out bytes.Buffer
	im := New(remote, opts, &out)
	im.Now = func() time.Time { return fixedNow }
	return im, &out
}

var testRepo = &types.Repository{Owner: "octo", Name: "widgets", FullName: "octo/widgets"}

func TestImportIssues_BodyDefaultsToTitle(t *testing.T) {
	remote := newFakeRemote()
	im, _ := newTestImporter(remote, DefaultOptions())

	stats, err := im.ImportIssues(context.Background(), testRepo, []types.IssueRecord{{Title: "Bug A"}}, false)
	require.NoError(t, err)

	require.Len(t, remote.issues, 1)
	assert.Equal(t, types.IssueRecord{Title: "Bug A", Body: "Bug A", CreatedAt: fixedNow}, remote.issues[0])
	assert.Equal(t, &PipelineStats{Total: 1, Imported: 1}, stats)
}

func TestImportIssues_NotFoundContinues(t *testing.T) {
	remote := newFakeRemote()
	remote.errs["import:two"] = notFound("two")
	im, out := newTestImporter(remote, DefaultOptions())

	issues := []types.IssueRecord{{Title: "one"}, {Title: "two"}, {Title: "three"}}
	stats, err := im.ImportIssues(context.Background(), testRepo, issues, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"import:one", "import:two", "import:three"}, remote.mutations())
	assert.Equal(t, 2, stats.Imported)
	assert.Equal(t, 1, stats.Warnings)
	assert.Contains(t, out.String(), "maybe permissions?")
}

func TestImportIssues_OtherErrorAborts(t *testing.T) {
	remote := newFakeRemote()
	remote.errs["import:two"] = otherFailure("two")
	im, _ := newTestImporter(remote, DefaultOptions())

	issues := []types.IssueRecord{{Title: "one"}, {Title: "two"}, {Title: "three"}}
	stats, err := im.ImportIssues(context.Background(), testRepo, issues, false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrRemoteNotFound)

	assert.Equal(t, []string{"import:one", "import:two"}, remote.mutations())
	assert.Equal(t, 1, stats.Imported)
}

func TestImportIssues_DryRun(t *testing.T) {
	remote := newFakeRemote()
	im, out := newTestImporter(remote, DefaultOptions())

	stats, err := im.ImportIssues(context.Background(), testRepo, []types.IssueRecord{{Title: "Bug A"}, {Title: "Bug B", Body: "b"}}, true)
	require.NoError(t, err)

	assert.Empty(t, remote.calls)
	assert.Equal(t, 2, stats.DryRun)
	assert.Contains(t, out.String(), `would import issue: {"title":"Bug A","body":"Bug A","created_at":"2024-03-01T12:00:00Z"}`)
	assert.Contains(t, out.String(), `"title":"Bug B","body":"b"`)
}

func TestImportIssues_SuppliedTimestampKept(t *testing.T) {
	remote := newFakeRemote()
	im, _ := newTestImporter(remote, DefaultOptions())
	supplied := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := im.ImportIssues(context.Background(), testRepo, []types.IssueRecord{{Title: "old", Body: "x", CreatedAt: supplied}}, false)
	require.NoError(t, err)
	assert.Equal(t, supplied, remote.issues[0].CreatedAt)
}

func TestImportIssues_DefaultCreatedAt(t *testing.T) {
	remote := newFakeRemote()
	opts := DefaultOptions()
	opts.CreatedAt = time.Date(2016, 9, 1, 8, 30, 0, 0, time.UTC)
	im, _ := newTestImporter(remote, opts)
	supplied := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := im.ImportIssues(context.Background(), testRepo, []types.IssueRecord{
		{Title: "no date"},
		{Title: "dated", CreatedAt: supplied},
	}, false)
	require.NoError(t, err)
	require.Len(t, remote.issues, 2)
	assert.Equal(t, opts.CreatedAt, remote.issues[0].CreatedAt)
	assert.Equal(t, supplied, remote.issues[1].CreatedAt)
}

func TestImportLabels(t *testing.T) {
	remote := newFakeRemote()
	im, _ := newTestImporter(remote, DefaultOptions())

	stats, err := im.ImportLabels(context.Background(), testRepo, []types.LabelRecord{{Name: "bug", Color: "ff0000"}}, false)
	require.NoError(t, err)
	assert.Equal(t, []types.LabelRecord{{Name: "bug", Color: "ff0000"}}, remote.labels)
	assert.Equal(t, 1, stats.Imported)
}

func TestImportLabels_ErrorAbortsByDefault(t *testing.T) {
	remote := newFakeRemote()
	remote.errs["label:b"] = notFound("b")
	im, _ := newTestImporter(remote, DefaultOptions())

	labels := []types.LabelRecord{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	stats, err := im.ImportLabels(context.Background(), testRepo, labels, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRemoteNotFound)
	assert.Equal(t, []string{"label:a", "label:b"}, remote.mutations())
	assert.Equal(t, 1, stats.Imported)
}

func TestImportLabels_ContinueOnError(t *testing.T) {
	remote := newFakeRemote()
	remote.errs["label:b"] = otherFailure("b")
	opts := DefaultOptions()
	opts.ContinueOnLabelError = true
	im, out := newTestImporter(remote, opts)

	labels := []types.LabelRecord{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	stats, err := im.ImportLabels(context.Background(), testRepo, labels, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"label:a", "label:b", "label:c"}, remote.mutations())
	assert.Equal(t, &PipelineStats{Total: 3, Imported: 2, Warnings: 1}, stats)
	assert.Contains(t, out.String(), `Could not create label "b"`)
}

func TestImportLabels_DryRun(t *testing.T) {
	remote := newFakeRemote()
	im, out := newTestImporter(remote, DefaultOptions())

	_, err := im.ImportLabels(context.Background(), testRepo, []types.LabelRecord{{Name: "bug", Color: "ff0000"}}, true)
	require.NoError(t, err)
	assert.Empty(t, remote.calls)
	assert.Contains(t, out.String(), `would create label: {"name":"bug","color":"ff0000"}`)
}

func TestImportMembers_SkipsFirst49(t *testing.T) {
	remote := newFakeRemote()
	remote.members["old-org"] = memberLogins(60)
	im, out := newTestImporter(remote, DefaultOptions())
	from, to := remote.orgs["old-org"], remote.orgs["new-org"]

	stats, err := im.ImportMembers(context.Background(), from, to, false)
	require.NoError(t, err)

	require.Len(t, remote.memberships, 11)
	assert.Equal(t, "user49", remote.memberships[0])
	assert.Equal(t, "user59", remote.memberships[10])
	assert.Equal(t, &PipelineStats{Total: 11, Imported: 11, Skipped: 49}, stats)
	assert.Contains(t, out.String(), "50 members in a 24 hour period")
}

func TestImportMembers_DryRunSkipsFirst49(t *testing.T) {
	remote := newFakeRemote()
	remote.members["old-org"] = memberLogins(60)
	im, out := newTestImporter(remote, DefaultOptions())

	stats, err := im.ImportMembers(context.Background(), remote.orgs["old-org"], remote.orgs["new-org"], true)
	require.NoError(t, err)

	assert.Empty(t, remote.mutations())
	assert.Equal(t, 11, stats.DryRun)
	assert.Equal(t, 11, bytes.Count(out.Bytes(), []byte("would invite member: ")))
	assert.NotContains(t, out.String(), "user48")
	assert.Contains(t, out.String(), "user49")
}

func TestImportMembers_ForbiddenContinues(t *testing.T) {
	remote := newFakeRemote()
	remote.members["old-org"] = []string{"m1", "m2", "m3", "m4", "m5"}
	remote.errs["membership:m3"] = forbidden("m3")
	im, out := newTestImporter(remote, Options{MemberSkip: 0})

	stats, err := im.ImportMembers(context.Background(), remote.orgs["old-org"], remote.orgs["new-org"], false)
	require.NoError(t, err)

	assert.Equal(t, []string{"membership:m1", "membership:m2", "membership:m3", "membership:m4", "membership:m5"}, remote.mutations())
	assert.Equal(t, 4, stats.Imported)
	assert.Equal(t, 1, stats.Warnings)
	assert.Contains(t, out.String(), "50 invites per day restriction")
}

func TestWarningsGoToWarnOut(t *testing.T) {
	remote := newFakeRemote()
	remote.errs["import:Bug A"] = notFound("Bug A")
	im, out := newTestImporter(remote, DefaultOptions())
	var warnings bytes.Buffer
	im.Out = io.Discard
	im.WarnOut = &warnings

	stats, err := im.ImportIssues(context.Background(), testRepo, []types.IssueRecord{{Title: "Bug A"}, {Title: "Bug B"}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Warnings)
	assert.Empty(t, out.String())
	assert.Contains(t, warnings.String(), "maybe permissions?")
	assert.Contains(t, warnings.String(), `"Bug A"`)
}

func TestImportMembers_OtherErrorAborts(t *testing.T) {
	remote := newFakeRemote()
	remote.members["old-org"] = []string{"m1", "m2", "m3"}
	remote.errs["membership:m2"] = otherFailure("m2")
	im, _ := newTestImporter(remote, Options{MemberSkip: 0})

	_, err := im.ImportMembers(context.Background(), remote.orgs["old-org"], remote.orgs["new-org"], false)
	require.Error(t, err)
	assert.Equal(t, []string{"membership:m1", "membership:m2"}, remote.mutations())
}

func TestImportMembers_FewerThanSkip(t *testing.T) {
	remote := newFakeRemote()
	remote.members["old-org"] = memberLogins(10)
	im, out := newTestImporter(remote, DefaultOptions())

	stats, err := im.ImportMembers(context.Background(), remote.orgs["old-org"], remote.orgs["new-org"], false)
	require.NoError(t, err)
	assert.Empty(t, remote.mutations())
	assert.Equal(t, &PipelineStats{Skipped: 10}, stats)
	assert.NotContains(t, out.String(), "24 hour period")
}

func TestSkipMembers(t *testing.T) {
	logins := memberLogins(5)
	assert.Equal(t, logins, skipMembers(logins, 0))
	assert.Equal(t, logins, skipMembers(logins, -3))
	assert.Equal(t, logins[2:], skipMembers(logins, 2))
	assert.Nil(t, skipMembers(logins, 5))
	assert.Nil(t, skipMembers(logins, 9))
}

func TestPipelinesStopOnCancel(t *testing.T) {
	remote := newFakeRemote()
	im, _ := newTestImporter(remote, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.ImportIssues(ctx, testRepo, []types.IssueRecord{{Title: "one"}}, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, remote.calls)
}
