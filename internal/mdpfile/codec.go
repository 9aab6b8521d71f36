// Package mdpfile reads and writes the MDP persisted record format:
// a YAML frontmatter block delimited by --- lines, followed by the
// document body.
package mdpfile

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/identity"
)

const delimiter = "---"

// Decode splits raw MDP bytes into the open metadata map and the body.
// Input without a frontmatter block decodes to an empty map and the
// unchanged body.
func Decode(data []byte) (map[string]any, string, error) {
	content := string(data)
	if content == delimiter {
		return nil, "", fmt.Errorf("unterminated frontmatter block")
	}
	if !strings.HasPrefix(content, delimiter+"\n") {
		return map[string]any{}, content, nil
	}

	rest := content[len(delimiter)+1:]
	end := strings.Index(rest, "\n"+delimiter)
	if end < 0 {
		return nil, "", fmt.Errorf("unterminated frontmatter block")
	}

	frontmatter := rest[:end]
	body := rest[end+len(delimiter)+1:]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(frontmatter), &meta); err != nil {
		return nil, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return meta, body, nil
}

// Encode renders a metadata map and body as MDP bytes.
func Encode(meta map[string]any, content string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}

	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(content)
	return buf.Bytes(), nil
}

// DecodeDocument builds a document from MDP bytes. Identity fields (uuid,
// uri), relationships, and collection membership are lifted out of the
// metadata map; ill-typed metadata fields are reported in bad.
func DecodeDocument(data []byte) (doc *models.Document, bad []string, err error) {
	meta, body, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}

	doc = &models.Document{Content: body}

	if id, ok := meta["uuid"].(string); ok {
		doc.ID = id
		delete(meta, "uuid")
	}
	if uri, ok := meta["uri"].(string); ok {
		doc.URI = uri
		delete(meta, "uri")
	}
	if colID, ok := meta["collection_id"].(string); ok {
		doc.ParentCollection = colID
	}
	delete(meta, "collection_id")
	delete(meta, "collection")
	delete(meta, "position")

	if raw, ok := meta["relationships"]; ok {
		delete(meta, "relationships")
		rels, relBad := decodeRelationships(doc.ID, raw)
		doc.Relationships = rels
		bad = append(bad, relBad...)
	}
	if parent, ok := meta["parent_document"].(string); ok && parent != "" {
		doc.Relationships = append(doc.Relationships, models.Relationship{
			SourceID: doc.ID,
			Target:   targetFromString(parent),
			Type:     models.RelChildOf,
		})
	}
	delete(meta, "parent_document")
	if raw, ok := meta["related_documents"].([]any); ok {
		for _, item := range raw {
			ref, ok := item.(string)
			if !ok {
				bad = append(bad, "related_documents")
				continue
			}
			doc.Relationships = append(doc.Relationships, models.Relationship{
				SourceID: doc.ID,
				Target:   targetFromString(ref),
				Type:     models.RelRelated,
			})
		}
	}
	delete(meta, "related_documents")

	m, metaBad := models.MetadataFromMap(meta)
	doc.Metadata = m
	bad = append(bad, metaBad...)
	return doc, bad, nil
}

// EncodeDocument renders a document as MDP bytes. The output round-trips
// through DecodeDocument without loss.
func EncodeDocument(doc *models.Document) ([]byte, error) {
	meta := doc.Metadata.ToMap()
	meta["uuid"] = doc.ID
	meta["uri"] = doc.URI
	if doc.ParentCollection != "" {
		meta["collection_id"] = doc.ParentCollection
	}
	if len(doc.Relationships) > 0 {
		rels := make([]any, 0, len(doc.Relationships))
		for _, rel := range doc.Relationships {
			entry := map[string]any{
				"edge_id": rel.EdgeID,
				"type":    rel.Type,
			}
			if rel.Target.ID != "" {
				entry["id"] = rel.Target.ID
			} else {
				entry["ref"] = rel.Target.Ref
			}
			if rel.Bidirectional {
				entry["bidirectional"] = true
			}
			if len(rel.Meta) > 0 {
				entry["meta"] = rel.Meta
			}
			if !rel.CreatedAt.IsZero() {
				entry["created_at"] = rel.CreatedAt.Format(time.RFC3339)
			}
			rels = append(rels, entry)
		}
		meta["relationships"] = rels
	}
	return Encode(meta, doc.Content)
}

// decodeRelationships accepts both the native edge form (type + id/ref)
// and the legacy MDP form (type + id/uri/path).
func decodeRelationships(sourceID string, raw any) ([]models.Relationship, []string) {
	items, ok := raw.([]any)
	if !ok {
		return nil, []string{"relationships"}
	}

	var (
		rels []models.Relationship
		bad  []string
	)
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			bad = append(bad, "relationships")
			continue
		}
		relType, _ := entry["type"].(string)
		if relType == "" {
			bad = append(bad, "relationships")
			continue
		}
		rel := models.Relationship{SourceID: sourceID, Type: relType}
		if id, ok := entry["edge_id"].(string); ok {
			rel.EdgeID = id
		}
		if bidi, ok := entry["bidirectional"].(bool); ok {
			rel.Bidirectional = bidi
		}
		if meta, ok := entry["meta"].(map[string]any); ok {
			rel.Meta = meta
		}
		if created, ok := entry["created_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				rel.CreatedAt = t
			}
		}
		switch {
		case stringField(entry, "id") != "":
			rel.Target = models.TargetByID(stringField(entry, "id"))
		case stringField(entry, "ref") != "":
			rel.Target = targetFromString(stringField(entry, "ref"))
		case stringField(entry, "uri") != "":
			rel.Target = models.TargetByRef(stringField(entry, "uri"))
		case stringField(entry, "path") != "":
			rel.Target = models.TargetByRef(stringField(entry, "path"))
		default:
			bad = append(bad, "relationships")
			continue
		}
		rels = append(rels, rel)
	}
	return rels, bad
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func targetFromString(ref string) models.TargetRef {
	// A bare UUID is already resolved; anything else stays lazy.
	if identity.IsUUID(ref) {
		return models.TargetByID(ref)
	}
	return models.TargetByRef(ref)
}
