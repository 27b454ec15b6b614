package importer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openstax-kanban/issue-importer/internal/types"
)

// MapIssues turns the "cards" section into issue payloads. The first malformed
// card stops mapping and is reported as a *types.MappingError.
func MapIssues(src *types.ImportSource) ([]types.IssueRecord, error) {
	if !src.HasCards {
		return nil, &types.MappingError{Section: "cards", Index: -1, Reason: `missing "cards" section`}
	}

	records := make([]types.IssueRecord, 0, len(src.Cards))
	for i, raw := range src.Cards {
		card, err := decodeCard(i, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, MapIssue(card))
	}
	return records, nil
}

// MapIssue maps one card. Body and timestamp defaults are applied later by NormalizeIssue.
func MapIssue(card types.Card) types.IssueRecord {
	return types.IssueRecord{
		Title:     card.Name,
		Body:      card.Desc,
		CreatedAt: card.CreatedAt,
	}
}

// NormalizeIssue fills the defaults an import call requires: an empty body
// becomes the title and a missing creation time becomes now in UTC.
func NormalizeIssue(rec types.IssueRecord, now time.Time) types.IssueRecord {
	if rec.Body == "" {
		rec.Body = rec.Title
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	return rec
}

// MapLabels turns the "labels" section into label payloads.
func MapLabels(src *types.ImportSource) ([]types.LabelRecord, error) {
	if !src.HasLabels {
		return nil, &types.MappingError{Section: "labels", Index: -1, Reason: `missing "labels" section`}
	}

	records := make([]types.LabelRecord, 0, len(src.Labels))
	for i, raw := range src.Labels {
		entry, err := decodeLabel(i, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, MapLabel(entry))
	}
	return records, nil
}

// MapLabel maps one label entry; the color is copied as-is.
func MapLabel(entry types.LabelEntry) types.LabelRecord {
	return types.LabelRecord{Name: entry.Name, Color: entry.Hex}
}

// MapMembers is the identity mapping; logins are passed through untouched.
func MapMembers(logins []string) []string {
	return logins
}

func decodeCard(i int, raw json.RawMessage) (types.Card, error) {
	fields, err := decodeObject("cards", i, raw)
	if err != nil {
		return types.Card{}, err
	}

	var card types.Card
	if card.Name, err = requiredString(fields, "cards", i, "name"); err != nil {
		return types.Card{}, err
	}
	// The name doubles as the fallback body, which must not be empty.
	if strings.TrimSpace(card.Name) == "" {
		return types.Card{}, &types.MappingError{Section: "cards", Index: i, Field: "name", Reason: "required field missing"}
	}
	if card.Desc, err = optionalString(fields, "cards", i, "desc"); err != nil {
		return types.Card{}, err
	}

	created, err := optionalString(fields, "cards", i, "created_at")
	if err != nil {
		return types.Card{}, err
	}
	if created != "" {
		ts, err := time.Parse(time.RFC3339, created)
		if err != nil {
			return types.Card{}, &types.MappingError{Section: "cards", Index: i, Field: "created_at",
				Reason: fmt.Sprintf("not an RFC 3339 timestamp: %q", created)}
		}
		card.CreatedAt = ts
	}
	return card, nil
}

func decodeLabel(i int, raw json.RawMessage) (types.LabelEntry, error) {
	fields, err := decodeObject("labels", i, raw)
	if err != nil {
		return types.LabelEntry{}, err
	}

	var entry types.LabelEntry
	if entry.Name, err = requiredString(fields, "labels", i, "name"); err != nil {
		return types.LabelEntry{}, err
	}
	if entry.Hex, err = requiredString(fields, "labels", i, "hex"); err != nil {
		return types.LabelEntry{}, err
	}
	return entry, nil
}

func decodeObject(section string, i int, raw json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &types.MappingError{Section: section, Index: i, Reason: "record is not an object"}
	}
	return fields, nil
}

func requiredString(fields map[string]json.RawMessage, section string, i int, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return "", &types.MappingError{Section: section, Index: i, Field: key, Reason: "required field missing"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &types.MappingError{Section: section, Index: i, Field: key, Reason: "must be a string"}
	}
	return s, nil
}

// optionalString treats an absent key or JSON null as "".
func optionalString(fields map[string]json.RawMessage, section string, i int, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &types.MappingError{Section: section, Index: i, Field: key, Reason: "must be a string"}
	}
	return s, nil
}
