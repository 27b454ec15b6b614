package importer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/openstax-kanban/issue-importer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceOf(t *testing.T, cards, labels []string) *types.ImportSource {
	t.Helper()
	src := &types.ImportSource{HasCards: cards != nil, HasLabels: labels != nil}
	for _, c := range cards {
		src.Cards = append(src.Cards, json.RawMessage(c))
	}
	for _, l := range labels {
		src.Labels = append(src.Labels, json.RawMessage(l))
	}
	return src
}

func TestMapIssues(t *testing.T) {
	created := "2019-04-01T10:00:00Z"
	src := sourceOf(t, []string{
		`{"name":"Bug A","desc":""}`,
		`{"name":"Bug B","desc":"steps to reproduce","idList":"abc"}`,
		`{"name":"Bug C"}`,
		`{"name":"Bug D","desc":null,"created_at":"` + created + `"}`,
	}, nil)

	issues, err := MapIssues(src)
	require.NoError(t, err)
	require.Len(t, issues, 4)

	assert.Equal(t, types.IssueRecord{Title: "Bug A"}, issues[0])
	assert.Equal(t, types.IssueRecord{Title: "Bug B", Body: "steps to reproduce"}, issues[1])
	assert.Equal(t, "", issues[2].Body)
	assert.True(t, issues[2].CreatedAt.IsZero())
	assert.Equal(t, created, issues[3].CreatedAt.Format(time.RFC3339))
}

func TestMapIssues_Errors(t *testing.T) {
	tests := []struct {
		name      string
		src       *types.ImportSource
		wantIndex int
		wantField string
	}{
		{"missing section", sourceOf(t, nil, []string{}), -1, ""},
		{"missing name", sourceOf(t, []string{`{"name":"ok"}`, `{"desc":"no title"}`}, nil), 1, "name"},
		{"null name", sourceOf(t, []string{`{"name":null}`}, nil), 0, "name"},
		{"empty name", sourceOf(t, []string{`{"name":"","desc":""}`}, nil), 0, "name"},
		{"blank name", sourceOf(t, []string{`{"name":"ok"}`, `{"name":"  ","desc":"body"}`}, nil), 1, "name"},
		{"name not a string", sourceOf(t, []string{`{"name":42}`}, nil), 0, "name"},
		{"desc not a string", sourceOf(t, []string{`{"name":"x","desc":["a"]}`}, nil), 0, "desc"},
		{"record not an object", sourceOf(t, []string{`"just a string"`}, nil), 0, ""},
		{"bad timestamp", sourceOf(t, []string{`{"name":"x","created_at":"yesterday"}`}, nil), 0, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapIssues(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrMapping)

			var mErr *types.MappingError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, "cards", mErr.Section)
			assert.Equal(t, tt.wantIndex, mErr.Index)
			assert.Equal(t, tt.wantField, mErr.Field)
		})
	}
}

func TestNormalizeIssue(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("EST", -5*3600))
	supplied := time.Date(2018, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		in   types.IssueRecord
		want types.IssueRecord
	}{
		{
			name: "empty body falls back to title",
			in:   types.IssueRecord{Title: "Bug A"},
			want: types.IssueRecord{Title: "Bug A", Body: "Bug A", CreatedAt: now.UTC()},
		},
		{
			name: "body kept",
			in:   types.IssueRecord{Title: "Bug B", Body: "details"},
			want: types.IssueRecord{Title: "Bug B", Body: "details", CreatedAt: now.UTC()},
		},
		{
			name: "supplied timestamp untouched",
			in:   types.IssueRecord{Title: "Bug C", Body: "x", CreatedAt: supplied},
			want: types.IssueRecord{Title: "Bug C", Body: "x", CreatedAt: supplied},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeIssue(tt.in, now)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.Body)
			assert.Equal(t, time.UTC, got.CreatedAt.Location())
		})
	}
}

func TestMapLabels(t *testing.T) {
	labels, err := MapLabels(sourceOf(t, nil, []string{
		`{"name":"bug","hex":"ff0000"}`,
		`{"name":"odd","hex":"not-a-color"}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, []types.LabelRecord{
		{Name: "bug", Color: "ff0000"},
		{Name: "odd", Color: "not-a-color"},
	}, labels)
}

func TestMapLabels_Errors(t *testing.T) {
	tests := []struct {
		name      string
		src       *types.ImportSource
		wantField string
	}{
		{"missing section", sourceOf(t, []string{}, nil), ""},
		{"missing hex", sourceOf(t, nil, []string{`{"name":"bug"}`}), "hex"},
		{"missing name", sourceOf(t, nil, []string{`{"hex":"ff0000"}`}), "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapLabels(tt.src)
			var mErr *types.MappingError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, "labels", mErr.Section)
			assert.Equal(t, tt.wantField, mErr.Field)
		})
	}
}

func TestMapMembersPassthrough(t *testing.T) {
	in := []string{"alice", "bob"}
	assert.Equal(t, in, MapMembers(in))
	assert.Nil(t, MapMembers(nil))
}
