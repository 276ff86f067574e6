// Package ingest turns a Zotero CSV export into a document graph and,
// when a store is given, a snapshot of it.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/charmbracelet/log"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/logger"
	"scribl/internal/parser"
	"scribl/internal/store"
	"scribl/internal/zotero"
)

// LabelLayout is the timestamp layout of export file names and snapshot labels.
const LabelLayout = "2006_01_02_150405"

var labelPattern = regexp.MustCompile(`^\d{4}_\d{2}_\d{2}_\d{6}`)

// Store is the part of store.Store ingestion needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	ListSnapshots(ctx context.Context) ([]store.Snapshot, error)
	SaveSnapshot(ctx context.Context, input store.SnapshotInput) (*store.Snapshot, error)
}

type Options struct {
	// Path is the CSV export to read.
	Path string
	// Label names the snapshot. Empty derives it from the file name.
	Label string
	// Full saves a snapshot even when the latest one has the same hash.
	Full   bool
	Logger *log.Logger
}

type Result struct {
	DB            *graphdb.DB
	Label         string
	SourceHash    string
	Articles      int
	Entities      map[string]int
	Relationships int
	Warnings      int
	Errors        int
	Snapshot      *store.Snapshot
	Skipped       bool
}

// Run builds the graph of opts.Path. A nil db skips persistence.
func Run(ctx context.Context, cfg *config.ProjectConfig, schema *config.Schema, db Store, opts Options) (*Result, error) {
	l := logger.OrDiscard(opts.Logger)

	hash, err := computeHash(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", opts.Path, err)
	}

	export, err := zotero.ReadCSV(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", opts.Path, err)
	}
	records, err := export.Records(cfg.KeyMap, cfg.AnnotationField)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", opts.Path, err)
	}

	builder := graphdb.NewBuilder(schema, parser.New(schema, parser.NewGrammar(schema)), cfg.Delimiter)
	graph := builder.Build(records)

	result := &Result{
		DB:            graph,
		Label:         opts.Label,
		SourceHash:    hash,
		Articles:      graph.Articles.Len(),
		Entities:      make(map[string]int, len(graphdb.EntityOrder)),
		Relationships: graph.Relationships.Len(),
		Warnings:      graph.Warnings.Count(),
		Errors:        graph.Errors.Count(),
	}
	for _, kind := range graphdb.EntityOrder {
		result.Entities[kind] = graph.Entities[kind].Len()
	}
	if result.Label == "" {
		result.Label = LabelFor(opts.Path, time.Now())
	}
	l.Info("built graph", "file", filepath.Base(opts.Path), "articles", result.Articles,
		"relationships", result.Relationships, "warnings", result.Warnings, "errors", result.Errors)

	if db == nil {
		return result, nil
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	if !opts.Full {
		snapshots, err := db.ListSnapshots(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}
		if n := len(snapshots); n > 0 && snapshots[n-1].SourceHash == hash {
			latest := snapshots[n-1]
			l.Info("source unchanged, keeping snapshot", "label", latest.Label)
			result.Snapshot = &latest
			result.Skipped = true
			return result, nil
		}
	}

	snapshot, err := db.SaveSnapshot(ctx, store.SnapshotInput{Label: result.Label, SourceHash: hash, DB: graph})
	if err != nil {
		return nil, fmt.Errorf("saving snapshot %s: %w", result.Label, err)
	}
	l.Debug("saved snapshot", "label", snapshot.Label, "id", snapshot.ID)
	result.Snapshot = snapshot

	return result, nil
}

// LabelFor returns the timestamp prefix of an export file name, or now
// formatted the same way when the name carries none.
func LabelFor(path string, now time.Time) string {
	if label := labelPattern.FindString(filepath.Base(path)); label != "" {
		return label
	}
	return now.Format(LabelLayout)
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
