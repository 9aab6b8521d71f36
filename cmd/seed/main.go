// Command seed populates a running server with a small linked corpus:
// a handful of documents, relationships between them, and a nested
// collection hierarchy. Useful for local development and demos.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/pkg/client"
)

type seedDoc struct {
	path    string
	title   string
	tags    []string
	status  string
	content string
}

var seedDocs = []seedDoc{
	{
		path:   "guides/getting-started",
		title:  "Getting Started",
		tags:   []string{"guide", "onboarding"},
		status: "published",
		content: "# Getting Started\n\nInstall the CLI, set DEFAULT_NAMESPACE, and create your\nfirst document with a PUT to the resource path.\n",
	},
	{
		path:   "guides/addressing",
		title:  "Document Addressing",
		tags:   []string{"guide", "uri"},
		status: "published",
		content: "# Document Addressing\n\nEvery document has a stable identifier and a human-readable\nURI within its namespace.\n",
	},
	{
		path:   "reference/metadata",
		title:  "Metadata Reference",
		tags:   []string{"reference"},
		status: "published",
		content: "# Metadata Reference\n\nKnown fields are validated on write; extension fields use the\nx_ prefix.\n",
	},
	{
		path:   "reference/relationships",
		title:  "Relationship Types",
		tags:   []string{"reference", "graph"},
		status: "draft",
		content: "# Relationship Types\n\nreferences, child_of, parent_of, extends, derived_from, related.\n",
	},
	{
		path:   "notes/roadmap",
		title:  "Roadmap Notes",
		tags:   []string{"notes"},
		status: "draft",
		content: "# Roadmap Notes\n\nTraversal depth limits, richer search, collection exports.\n",
	},
}

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", "http://localhost:8080", "base URL of the server to seed")
	timeout := flag.Duration("timeout", 30*time.Second, "overall seeding timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*serverURL)

	ids := make(map[string]string, len(seedDocs))
	for _, sd := range seedDocs {
		doc, err := c.Create(ctx, &services.CreateDocumentRequest{
			Path: sd.path,
			Metadata: map[string]any{
				"title":  sd.title,
				"tags":   sd.tags,
				"status": sd.status,
			},
			Content: sd.content,
		})
		if err != nil {
			log.Fatalf("create %s: %v", sd.path, err)
		}
		ids[sd.path] = doc.ID
		fmt.Printf("created %s  %s\n", doc.ID, doc.URI)
	}

	relationships := []services.AddRelationshipRequest{
		{SourceID: ids["guides/getting-started"], TargetRef: "guides/addressing", Type: "references"},
		{SourceID: ids["guides/addressing"], TargetRef: ids["reference/metadata"], Type: "references"},
		{SourceID: ids["reference/relationships"], TargetRef: "reference/metadata", Type: "related", Bidirectional: true},
		{SourceID: ids["notes/roadmap"], TargetRef: "guides/getting-started", Type: "derived_from"},
	}
	for _, rel := range relationships {
		req := rel
		edgeID, err := c.AddRelationship(ctx, &req)
		if err != nil {
			log.Fatalf("relationship %s -> %s: %v", rel.SourceID, rel.TargetRef, err)
		}
		fmt.Printf("linked %s -[%s]-> %s (%s)\n", rel.SourceID, rel.Type, rel.TargetRef, edgeID)
	}

	docs, err := c.CreateCollection(ctx, "Documentation", map[string]any{"kind": "root"}, nil)
	if err != nil {
		log.Fatalf("create collection: %v", err)
	}
	guides, err := c.CreateCollection(ctx, "Guides", nil, &docs.ID)
	if err != nil {
		log.Fatalf("create collection: %v", err)
	}
	reference, err := c.CreateCollection(ctx, "Reference", nil, &docs.ID)
	if err != nil {
		log.Fatalf("create collection: %v", err)
	}

	members := map[string][]string{
		guides.ID:    {"guides/getting-started", "guides/addressing"},
		reference.ID: {"reference/metadata", "reference/relationships"},
		docs.ID:      {"notes/roadmap"},
	}
	for collID, paths := range members {
		for _, p := range paths {
			if err := c.AddMember(ctx, collID, ids[p], nil); err != nil {
				log.Fatalf("add member %s to %s: %v", p, collID, err)
			}
		}
	}

	tree, err := c.Hierarchy(ctx, docs.ID)
	if err != nil {
		log.Fatalf("hierarchy: %v", err)
	}
	fmt.Printf("seeded %d documents under %q (%d child collections)\n",
		len(seedDocs), tree.Collection.Name, len(tree.Children))
}
