package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// jsonEmptyObject is stored for absent property and metadata maps.
const jsonEmptyObject = "{}"

// Store is a SQLite database holding one knowledge graph snapshot.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the snapshot database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// Open database with WAL mode and foreign keys on every pooled connection
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_graph.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveGraph replaces the stored snapshot with export and the document
// registry. Either everything is written or nothing changes.
func (s *Store) SaveGraph(ctx context.Context, export *domain.GraphExport, docs []domain.DocumentRecord) error {
	if export == nil {
		return errors.New("graph export is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"relationships", "entities", "documents", "statistics"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := insertDocuments(ctx, tx, docs); err != nil {
		return err
	}
	if err := insertEntities(ctx, tx, export.Entities); err != nil {
		return err
	}
	if err := insertRelationships(ctx, tx, export.Relationships); err != nil {
		return err
	}

	stats := export.Statistics
	_, err = tx.ExecContext(ctx, `
		INSERT INTO statistics (id, total_documents, total_entities, total_relationships, total_chunks, last_updated)
		VALUES (1, ?, ?, ?, ?, ?)
	`, stats.TotalDocuments, stats.TotalEntities, stats.TotalRelationships, stats.TotalChunks,
		nullTime(stats.LastUpdated))
	if err != nil {
		return fmt.Errorf("saving statistics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Stats returns the statistics stored with the snapshot.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT total_documents, total_entities, total_relationships, total_chunks, last_updated
		FROM statistics WHERE id = 1
	`)

	var stats domain.Stats
	var lastUpdated sql.NullTime
	if err := row.Scan(&stats.TotalDocuments, &stats.TotalEntities, &stats.TotalRelationships,
		&stats.TotalChunks, &lastUpdated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Stats{}, nil
		}
		return domain.Stats{}, fmt.Errorf("scanning statistics: %w", err)
	}
	if lastUpdated.Valid {
		stats.LastUpdated = lastUpdated.Time.UTC()
	}
	return stats, nil
}

func insertDocuments(ctx context.Context, tx *sql.Tx, docs []domain.DocumentRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (doc_id, source, type, metadata, chunk_count, entity_count,
			relationship_count, ingested_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing documents: %w", err)
	}
	defer stmt.Close()

	for i := range docs {
		doc := &docs[i]
		metadataJSON, err := marshalMap(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata of %s: %w", doc.DocID, err)
		}
		if _, err := stmt.ExecContext(ctx, doc.DocID, doc.Source, doc.Type, metadataJSON,
			doc.ChunkCount, doc.EntityCount, doc.RelationshipCount, doc.IngestedAt.UTC(), i); err != nil {
			return fmt.Errorf("saving document %s: %w", doc.DocID, err)
		}
	}
	return nil
}

func insertEntities(ctx context.Context, tx *sql.Tx, entities []domain.Entity) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (id, name, type, description, properties, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing entities: %w", err)
	}
	defer stmt.Close()

	for i := range entities {
		e := &entities[i]
		propsJSON, err := marshalMap(e.Properties)
		if err != nil {
			return fmt.Errorf("marshalling properties of %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Name, e.Type, e.Description, propsJSON, i); err != nil {
			return fmt.Errorf("saving entity %s: %w", e.ID, err)
		}
	}
	return nil
}

func insertRelationships(ctx context.Context, tx *sql.Tx, relationships []domain.Relationship) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relationships (id, source_id, target_id, type, description, properties, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing relationships: %w", err)
	}
	defer stmt.Close()

	for i := range relationships {
		r := &relationships[i]
		propsJSON, err := marshalMap(r.Properties)
		if err != nil {
			return fmt.Errorf("marshalling properties of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.SourceID, r.TargetID, r.Type, r.Description,
			propsJSON, i); err != nil {
			return fmt.Errorf("saving relationship %s: %w", r.ID, err)
		}
	}
	return nil
}

// ==================== Helper Functions ====================

func marshalMap(m map[string]any) (string, error) {
	if len(m) == 0 {
		return jsonEmptyObject, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
