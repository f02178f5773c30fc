package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driven/storage/vectormath"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
)

// DBFileName is the database file inside the data directory.
const DBFileName = "knowledge.db"

// Ensure Store and collection implement the interfaces.
var (
	_ driven.VectorStore = (*Store)(nil)
	_ driven.Collection  = (*collection)(nil)
)

// Store is a SQLite-backed vector store.
type Store struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService
}

// NewStore opens (creating if needed) the knowledge base in dataDir.
func NewStore(dataDir string, embedder driven.EmbeddingService) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)

	// WAL for concurrent readers; foreign keys per connection via the DSN.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		embedder: embedder,
	}

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
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

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
		// "001_vectors.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Collections ====================

// Exists reports whether the named collection exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking collection: %w", err)
	}
	return n > 0, nil
}

// CreateCollection creates a collection bound to the store's embedding model.
func (s *Store) CreateCollection(ctx context.Context, name string, metadata map[string]any) (driven.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: collection %s already exists", domain.ErrInvalidInput, name)
	}

	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		return nil, err
	}

	model, dims := s.modelInfo()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO collections (name, metadata, embedding_model, dimensions) VALUES (?, ?, ?, ?)",
		name, metaJSON, model, dims)
	if err != nil {
		return nil, fmt.Errorf("inserting collection: %w", err)
	}

	return &collection{store: s, name: name, metadata: cloneMap(metadata)}, nil
}

// GetCollection opens an existing collection. A collection built with a
// different embedding model cannot be queried meaningfully and is rejected.
func (s *Store) GetCollection(ctx context.Context, name string) (driven.Collection, error) {
	var metaJSON, model string
	err := s.db.QueryRowContext(ctx,
		"SELECT metadata, embedding_model FROM collections WHERE name = ?", name,
	).Scan(&metaJSON, &model)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	if current, _ := s.modelInfo(); model != "" && current != "" && model != current {
		return nil, fmt.Errorf("%w: collection %s was built with embedding model %q, configured model is %q; rebuild with `engineroom ingest`",
			domain.ErrInvalidInput, name, model, current)
	}

	metadata, err := unmarshalMetadata(metaJSON)
	if err != nil {
		return nil, err
	}
	return &collection{store: s, name: name, metadata: metadata}, nil
}

// GetOrCreateCollection opens the collection, creating it if absent.
func (s *Store) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]any) (driven.Collection, error) {
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return s.GetCollection(ctx, name)
	}
	return s.CreateCollection(ctx, name, metadata)
}

// DeleteCollection drops a collection and its embeddings.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

func (s *Store) modelInfo() (string, int) {
	if s.embedder == nil {
		return "", 0
	}
	return s.embedder.ModelName(), s.embedder.Dimensions()
}

// ==================== Collection ====================

// collection implements driven.Collection.
type collection struct {
	store    *Store
	name     string
	metadata map[string]any
}

func (c *collection) Name() string { return c.name }

func (c *collection) Metadata() map[string]any { return cloneMap(c.metadata) }

// Add embeds documents and upserts them in a single transaction. An
// existing id keeps its position and gets the new text, metadata and vector.
func (c *collection) Add(ctx context.Context, ids, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("%w: ids, documents and metadatas lengths differ (%d, %d, %d)",
			domain.ErrInvalidInput, len(ids), len(documents), len(metadatas))
	}
	if len(ids) == 0 {
		return nil
	}
	if c.store.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	vectors, err := c.store.embedder.EmbedBatch(ctx, documents)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(documents) {
		return fmt.Errorf("embed documents: got %d vectors for %d documents", len(vectors), len(documents))
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (collection, id, seq, document, metadata, vector)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM embeddings WHERE collection = ?), ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			metadata = excluded.metadata,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		metaJSON, err := marshalMetadata(metadatas[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, c.name, id, c.name, documents[i], metaJSON,
			float32SliceToBytes(vectors[i])); err != nil {
			return fmt.Errorf("upserting %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type row struct {
	id       string
	document string
	metadata string
	vector   []float32
}

// Query embeds each query text and ranks every stored vector by cosine distance.
func (c *collection) Query(ctx context.Context, queryTexts []string, nResults int) (*driven.QueryResult, error) {
	res := &driven.QueryResult{}
	if len(queryTexts) == 0 {
		return res, nil
	}
	if c.store.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	queryVecs, err := c.store.embedder.EmbedBatch(ctx, queryTexts)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, qv := range queryVecs {
		dists := make([]float64, len(rows))
		for i, r := range rows {
			dists[i] = vectormath.CosineDistance(qv, r.vector)
		}

		nearest := vectormath.Nearest(dists, nResults)
		ids := make([]string, len(nearest))
		docs := make([]string, len(nearest))
		metas := make([]map[string]any, len(nearest))
		ds := make([]float64, len(nearest))
		for i, idx := range nearest {
			meta, err := unmarshalMetadata(rows[idx].metadata)
			if err != nil {
				return nil, err
			}
			ids[i] = rows[idx].id
			docs[i] = rows[idx].document
			metas[i] = meta
			ds[i] = dists[idx]
		}

		res.IDs = append(res.IDs, ids)
		res.Documents = append(res.Documents, docs)
		res.Metadatas = append(res.Metadatas, metas)
		res.Distances = append(res.Distances, ds)
	}
	return res, nil
}

func (c *collection) load(ctx context.Context) ([]row, error) {
	rs, err := c.store.db.QueryContext(ctx,
		"SELECT id, document, metadata, vector FROM embeddings WHERE collection = ? ORDER BY seq", c.name)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rs.Close()

	var out []row
	for rs.Next() {
		var r row
		var blob []byte
		if err := rs.Scan(&r.id, &r.document, &r.metadata, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		r.vector = bytesToFloat32Slice(blob)
		out = append(out, r)
	}
	return out, rs.Err()
}

// Count returns the number of stored embeddings.
func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embeddings WHERE collection = ?", c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// ==================== Helper Functions ====================

func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(data), nil
}

func unmarshalMetadata(s string) (map[string]any, error) {
	m := map[string]any{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return m, nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
