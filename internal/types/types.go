// Package types defines the records and handles that flow through an import run.
package types

import (
	"encoding/json"
	"time"
)

// ImportSource is the raw parsed content of an import file. Sections are kept
// as raw JSON so the mapper can validate each record on its own.
type ImportSource struct {
	Path      string            `json:"-"`
	Cards     []json.RawMessage `json:"cards,omitempty"`
	Labels    []json.RawMessage `json:"labels,omitempty"`
	HasCards  bool              `json:"-"` // "cards" key present in the file
	HasLabels bool              `json:"-"` // "labels" key present in the file
}

// Card is one validated entry of the "cards" section of an export.
type Card struct {
	Name      string    `json:"name"`
	Desc      string    `json:"desc,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// LabelEntry is one validated entry of the "labels" section of an export.
type LabelEntry struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// IssueRecord is the payload handed to the issue import endpoint.
type IssueRecord struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// LabelRecord is the payload handed to the label creation endpoint.
type LabelRecord struct {
	Name  string `json:"name"`
	Color string `json:"color"` // hex without '#', not validated
}

// Repository identifies the destination repository of a run.
type Repository struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url,omitempty"`
}

// String returns "owner/name".
func (r *Repository) String() string {
	if r.FullName != "" {
		return r.FullName
	}
	return r.Owner + "/" + r.Name
}

// Organization identifies a source or destination organization.
type Organization struct {
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

func (o *Organization) String() string {
	return o.Login
}
