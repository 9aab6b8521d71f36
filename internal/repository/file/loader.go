// Package file loads MDP documents from directories on disk into a
// document repository. Files are matched recursively with glob patterns
// and parsed with the frontmatter codec.
package file

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
	"github.com/greyhaven-ai/datapack/internal/identity"
	"github.com/greyhaven-ai/datapack/internal/mdpfile"
)

// DefaultPattern matches MDP files at any depth.
const DefaultPattern = "**/*.mdp"

// Loader walks directories and inserts every decoded document into the
// target repository.
type Loader struct {
	repo      repositories.DocumentRepository
	ids       *identity.Generator
	namespace string
	pattern   string
	logger    *slog.Logger
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Repo      repositories.DocumentRepository
	IDs       *identity.Generator
	Namespace string // assigned to documents whose frontmatter has no uri
	Pattern   string // glob pattern, DefaultPattern when empty
	Logger    *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(config LoaderConfig) *Loader {
	pattern := config.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ids := config.IDs
	if ids == nil {
		ids = identity.NewGenerator()
	}
	return &Loader{
		repo:      config.Repo,
		ids:       ids,
		namespace: config.Namespace,
		pattern:   pattern,
		logger:    logger,
	}
}

// LoadStats reports the outcome of a directory load.
type LoadStats struct {
	Loaded  int
	Skipped int // unreadable, undecodable, or conflicting files
}

// LoadDir loads every matching file under dir. Files that fail to decode
// or collide with already loaded documents are logged and skipped; the
// load continues.
func (l *Loader) LoadDir(ctx context.Context, dir string) (LoadStats, error) {
	var stats LoadStats

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, l.pattern)
	if err != nil {
		return stats, fmt.Errorf("glob %s in %s: %w", l.pattern, dir, err)
	}

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := l.loadFile(ctx, fsys, dir, match); err != nil {
			stats.Skipped++
			l.logger.Warn("skipping MDP file", "file", filepath.Join(dir, match), "error", err)
			continue
		}
		stats.Loaded++
	}
	return stats, nil
}

// LoadDirs loads every directory in order, accumulating stats.
func (l *Loader) LoadDirs(ctx context.Context, dirs []string) (LoadStats, error) {
	var total LoadStats
	for _, dir := range dirs {
		stats, err := l.LoadDir(ctx, dir)
		total.Loaded += stats.Loaded
		total.Skipped += stats.Skipped
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (l *Loader) loadFile(ctx context.Context, fsys fs.FS, dir, match string) error {
	data, err := fs.ReadFile(fsys, match)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	doc, bad, err := mdpfile.DecodeDocument(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(bad) > 0 {
		l.logger.Warn("ignoring ill-typed metadata fields",
			"file", filepath.Join(dir, match), "fields", bad)
	}

	if err := l.fillIdentity(doc, match); err != nil {
		return err
	}
	for i := range doc.Relationships {
		doc.Relationships[i].SourceID = doc.ID
		if doc.Relationships[i].EdgeID == "" {
			edgeID, err := l.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate edge id: %w", err)
			}
			doc.Relationships[i].EdgeID = edgeID
		}
	}

	if err := l.repo.Create(ctx, doc); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// fillIdentity assigns an id and uri to documents whose frontmatter
// omitted them. The uri is derived from the file's relative path under
// the loader's namespace.
func (l *Loader) fillIdentity(doc *models.Document, match string) error {
	if doc.ID == "" {
		id, err := l.ids.NewID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		doc.ID = id
	}
	if doc.URI == "" {
		path := strings.TrimSuffix(filepath.ToSlash(match), ".mdp")
		uri, err := identity.BuildURI(l.namespace, path)
		if err != nil {
			return fmt.Errorf("derive uri: %w", err)
		}
		doc.URI = uri
	}
	if doc.Metadata.Title == "" {
		doc.Metadata.Title = strings.TrimSuffix(filepath.Base(match), ".mdp")
	}
	return nil
}

// WriteDocument renders a document back to an MDP file under dir, using
// the path portion of its uri. Directories are created as needed.
func WriteDocument(dir string, doc *models.Document) (string, error) {
	_, path, err := identity.ParseURI(doc.URI)
	if err != nil {
		return "", fmt.Errorf("document %s has no usable uri: %w", doc.ID, err)
	}

	data, err := mdpfile.EncodeDocument(doc)
	if err != nil {
		return "", err
	}

	target := filepath.Join(dir, filepath.FromSlash(path)+".mdp")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}
