package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/greyhaven-ai/datapack/internal/repository/memory"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guides/setup.mdp", `---
title: Setup Guide
tags:
  - guide
---

Install the thing.
`)
	writeFile(t, dir, "api.mdp", `---
uuid: 7c9e6679-7425-40de-944b-e07fc1f90ae7
uri: mdp://acme/docs/api
title: API Reference
---

Endpoints.
`)
	writeFile(t, dir, "notes.txt", "not an mdp file")

	repo := memory.NewDocumentRepository()
	loader := NewLoader(LoaderConfig{Repo: repo, Namespace: "acme/docs"})

	stats, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if stats.Loaded != 2 || stats.Skipped != 0 {
		t.Fatalf("stats = %+v, want 2 loaded / 0 skipped", stats)
	}

	doc, err := repo.GetByID(context.Background(), "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Metadata.Title != "API Reference" {
		t.Errorf("title = %q", doc.Metadata.Title)
	}

	// Derived identity for the file without uuid/uri frontmatter.
	derived, err := repo.GetByURI(context.Background(), "mdp://acme/docs/guides/setup")
	if err != nil {
		t.Fatalf("GetByURI: %v", err)
	}
	if derived.ID == "" {
		t.Error("derived document has empty id")
	}
	if derived.Metadata.Title != "Setup Guide" {
		t.Errorf("title = %q", derived.Metadata.Title)
	}
}

func TestLoadDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.mdp", "---\ntitle: Fine\n---\n\nbody\n")
	writeFile(t, dir, "broken.mdp", "---\ntitle: Unterminated\n\nbody\n")

	repo := memory.NewDocumentRepository()
	loader := NewLoader(LoaderConfig{Repo: repo, Namespace: "acme/docs"})

	stats, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if stats.Loaded != 1 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v, want 1 loaded / 1 skipped", stats)
	}
}

func TestLoadDirDuplicateURISkipped(t *testing.T) {
	dir := t.TempDir()
	const front = "---\nuri: mdp://acme/docs/same\ntitle: First\n---\n\nbody\n"
	writeFile(t, dir, "a.mdp", front)
	writeFile(t, dir, "b.mdp", front)

	repo := memory.NewDocumentRepository()
	loader := NewLoader(LoaderConfig{Repo: repo, Namespace: "acme/docs"})

	stats, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if stats.Loaded != 1 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v, want 1 loaded / 1 skipped", stats)
	}
}

func TestWriteDocumentRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "deep/nested/doc.mdp", `---
uri: mdp://acme/docs/deep/nested/doc
title: Nested
---

content here
`)

	repo := memory.NewDocumentRepository()
	loader := NewLoader(LoaderConfig{Repo: repo, Namespace: "acme/docs"})
	if _, err := loader.LoadDir(context.Background(), src); err != nil {
		t.Fatal(err)
	}

	doc, err := repo.GetByURI(context.Background(), "mdp://acme/docs/deep/nested/doc")
	if err != nil {
		t.Fatal(err)
	}

	dst := t.TempDir()
	path, err := WriteDocument(dst, doc)
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	want := filepath.Join(dst, "deep", "nested", "doc.mdp")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	again := memory.NewDocumentRepository()
	reload := NewLoader(LoaderConfig{Repo: again, Namespace: "acme/docs"})
	stats, err := reload.LoadDir(context.Background(), dst)
	if err != nil || stats.Loaded != 1 {
		t.Fatalf("reload stats = %+v, err = %v", stats, err)
	}
}
