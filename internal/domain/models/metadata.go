package models

import (
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status values for the document lifecycle. The set is open: any string is
// accepted by the model, these are the well-known ones.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
)

// CustomFieldPrefix namespaces metadata fields outside the standard set.
const CustomFieldPrefix = "x_"

// DateFormat is the date-only form accepted for created_at/updated_at values
// coming from frontmatter.
const DateFormat = "2006-01-02"

// Metadata is the validated record attached to each document: a fixed
// required-field set plus an open extension map for x_-prefixed custom fields.
type Metadata struct {
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at,omitzero"`
	Author    string         `json:"author,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Version   string         `json:"version,omitempty"`
	Status    Status         `json:"status,omitempty"`
	Context   string         `json:"context,omitempty"`
	Source    *SourceInfo    `json:"source,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// SourceInfo records provenance for converted documents.
type SourceInfo struct {
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	if m.Source != nil {
		src := *m.Source
		out.Source = &src
	}
	if m.Extra != nil {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Validate checks the fixed-field invariants: a title must be present and
// tags, when given, must be non-empty strings. The open Extra map is not
// checked here; key shape is enforced during patch application.
func (m Metadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Tags, validation.Each(validation.Required)),
	)
}

// HasTag reports whether tag is present.
func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ToMap flattens the metadata into the open key/value form used by the
// frontmatter codec and by patch application. Custom fields keep their
// x_ prefix at the top level.
func (m Metadata) ToMap() map[string]any {
	out := map[string]any{
		"title":      m.Title,
		"created_at": m.CreatedAt.Format(time.RFC3339),
	}
	if !m.UpdatedAt.IsZero() {
		out["updated_at"] = m.UpdatedAt.Format(time.RFC3339)
	}
	if m.Author != "" {
		out["author"] = m.Author
	}
	if len(m.Tags) > 0 {
		tags := make([]any, len(m.Tags))
		for i, t := range m.Tags {
			tags[i] = t
		}
		out["tags"] = tags
	}
	if m.Version != "" {
		out["version"] = m.Version
	}
	if m.Status != "" {
		out["status"] = string(m.Status)
	}
	if m.Context != "" {
		out["context"] = m.Context
	}
	if m.Source != nil {
		if m.Source.File != "" {
			out["source_file"] = m.Source.File
		}
		if m.Source.Type != "" {
			out["source_type"] = m.Source.Type
		}
		if m.Source.URL != "" {
			out["source_url"] = m.Source.URL
		}
	}
	for k, v := range m.Extra {
		out[k] = v
	}
	return out
}

// ApplyPatch merges an open key/value patch over the metadata and returns
// the merged copy. Unknown non-custom keys and ill-typed values are
// collected into bad; callers refuse the whole patch when bad is non-empty,
// so a failed patch never half-applies.
func (m Metadata) ApplyPatch(patch map[string]any) (merged Metadata, bad []string) {
	merged = m.Clone()

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := patch[k]
		switch k {
		case "title":
			s, ok := v.(string)
			if !ok || s == "" {
				bad = append(bad, k)
				continue
			}
			merged.Title = s
		case "created_at":
			t, ok := parseTime(v)
			if !ok {
				bad = append(bad, k)
				continue
			}
			merged.CreatedAt = t
		case "updated_at":
			t, ok := parseTime(v)
			if !ok {
				bad = append(bad, k)
				continue
			}
			merged.UpdatedAt = t
		case "author":
			s, ok := v.(string)
			if !ok {
				bad = append(bad, k)
				continue
			}
			merged.Author = s
		case "tags":
			tags, ok := parseTags(v)
			if !ok {
				bad = append(bad, k)
				continue
			}
			merged.Tags = tags
		case "version":
			s, ok := v.(string)
			if !ok {
				bad = append(bad, k)
				continue
			}
			merged.Version = s
		case "status":
			s, ok := v.(string)
			if !ok {
				bad = append(bad, k)
				continue
			}
			merged.Status = Status(s)
		case "context":
			s, ok := v.(string)
			if !ok {
				bad = append(bad, k)
				continue
			}
			merged.Context = s
		case "source_file", "source_type", "source_url":
			s, ok := v.(string)
			if !ok {
				bad = append(bad, k)
				continue
			}
			if merged.Source == nil {
				merged.Source = &SourceInfo{}
			}
			switch k {
			case "source_file":
				merged.Source.File = s
			case "source_type":
				merged.Source.Type = s
			case "source_url":
				merged.Source.URL = s
			}
		default:
			if !strings.HasPrefix(k, CustomFieldPrefix) {
				bad = append(bad, k)
				continue
			}
			if merged.Extra == nil {
				merged.Extra = make(map[string]any)
			}
			if v == nil {
				delete(merged.Extra, k)
			} else {
				merged.Extra[k] = v
			}
		}
	}
	return merged, bad
}

// MetadataFromMap builds a Metadata record from the open key/value form.
// Ill-typed values are reported in bad, one entry per offending field.
func MetadataFromMap(in map[string]any) (Metadata, []string) {
	return Metadata{}.ApplyPatch(in)
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(DateFormat, t); err == nil {
			return parsed, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func parseTags(v any) ([]string, bool) {
	switch tags := v.(type) {
	case []string:
		return append([]string(nil), tags...), true
	case []any:
		out := make([]string, 0, len(tags))
		for _, item := range tags {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}
