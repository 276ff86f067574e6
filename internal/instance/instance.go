// Package instance manages a scribl database folder: its metadata, the
// imported Zotero exports, snapshots and backups.
package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/ingest"
	"scribl/internal/logger"
	"scribl/internal/store"
	"scribl/internal/store/postgres"
	"scribl/internal/store/sqlite"
)

const (
	ConfigDir    = "config"
	SnapshotsDir = "db_snapshots"
	ExportsDir   = "zotero_csv_exports"
	BackupDir    = "backup"

	MetadataFile    = "metadata.txt"
	AnnotationsFile = "annotations.txt"
	ConfigFile      = "scribl.yaml"
	SnapshotFile    = "snapshots.db"
)

var (
	ErrNotDatabase = errors.New("directory exists but does not contain a scribl database")
	ErrNoExports   = errors.New("no zotero csv exports")
	ErrNoGraph     = errors.New("no graph loaded")
)

type Options struct {
	// Overwrite removes an existing database before creating a new one.
	Overwrite bool
	Logger    *log.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Instance struct {
	Path    string
	Config  *config.ProjectConfig
	Schema  *config.Schema
	Created bool

	log     *log.Logger
	now     func() time.Time
	store   store.Store
	current *ingest.Result
}

// Open creates the database folder tree at path, or opens the database
// already there. A folder without config/metadata.txt is refused.
func Open(path string, opts Options) (*Instance, error) {
	inst := &Instance{
		Path:   path,
		Schema: config.DefaultSchema(),
		log:    logger.OrDiscard(opts.Logger),
		now:    opts.Now,
	}
	if inst.now == nil {
		inst.now = time.Now
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		inst.Created = true
	case err != nil:
		return nil, fmt.Errorf("opening %s: %w", path, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotDatabase, path)
	default:
		if _, err := os.Stat(inst.path(ConfigDir, MetadataFile)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotDatabase, path)
		}
		if opts.Overwrite {
			inst.log.Warn("overwrite enabled, removing existing database", "path", path)
			if err := os.RemoveAll(path); err != nil {
				return nil, fmt.Errorf("removing %s: %w", path, err)
			}
			inst.Created = true
		}
	}

	if inst.Created {
		for _, dir := range []string{ConfigDir, SnapshotsDir, ExportsDir, BackupDir} {
			if err := os.MkdirAll(inst.path(dir), 0o755); err != nil {
				return nil, fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		inst.log.Info("created database", "path", path)
	} else {
		inst.log.Debug("opened existing database", "path", path)
	}

	cfg, err := config.LoadOrDefault(inst.path(ConfigDir, ConfigFile))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	inst.Config = cfg

	return inst, nil
}

func (i *Instance) path(elem ...string) string {
	return filepath.Join(append([]string{i.Path}, elem...)...)
}

// Close releases the snapshot store if one was opened.
func (i *Instance) Close(ctx context.Context) error {
	if i.store == nil {
		return nil
	}
	err := i.store.Close(ctx)
	i.store = nil
	return err
}

// Store opens the snapshot store on first use. The configured DSN wins;
// otherwise snapshots live in db_snapshots/snapshots.db.
func (i *Instance) Store(ctx context.Context) (store.Store, error) {
	if i.store != nil {
		return i.store, nil
	}
	dsn := i.Config.Store.DSN
	if dsn == "" {
		dsn = "sqlite://" + i.path(SnapshotsDir, SnapshotFile)
	}
	s, err := OpenStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	i.store = s
	return s, nil
}

// OpenStore picks the backend from the DSN scheme.
func OpenStore(ctx context.Context, dsn string) (store.Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	client, err := sqlite.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Graph returns the graph built by the last LoadCSV, or nil.
func (i *Instance) Graph() *graphdb.DB {
	if i.current == nil {
		return nil
	}
	return i.current.DB
}

// Current returns the result of the last LoadCSV, or nil.
func (i *Instance) Current() *ingest.Result {
	return i.current
}

func (i *Instance) graph() (*graphdb.DB, error) {
	if i.current == nil {
		return nil, ErrNoGraph
	}
	return i.current.DB, nil
}

func (i *Instance) timestamp() string {
	return i.now().Format(ingest.LabelLayout)
}
