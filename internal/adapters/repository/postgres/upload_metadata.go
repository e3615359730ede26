package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"

	"github.com/lib/pq"
)

type sqlUploadMetadataRepository struct {
	db  SQLQuerier
	uow *UnitOfWork
}

// NewSQLUploadMetadataRepository creates a repository that implements port.UploadMetadataRepository
func NewSQLUploadMetadataRepository(db *sql.DB) port.UploadMetadataRepository {
	return &sqlUploadMetadataRepository{
		db:  db,
		uow: NewUnitOfWork(db),
	}
}

const selectUploadQuery = `
	SELECT m.owner, m.filename, m.total_bytes, m.total_declared, m.created_at, m.last_update,
	       c.start_byte, c.end_byte, c.size, c.last_update
	FROM upload_metadata m
	LEFT JOIN upload_chunk c ON c.owner = m.owner AND c.filename = m.filename`

// Load reads an upload and its chunks in a single statement
func (s *sqlUploadMetadataRepository) Load(ctx context.Context, owner, filename string) (*domain.UploadMetadata, error) {
	query := selectUploadQuery + ` WHERE m.owner = $1 AND m.filename = $2`

	uploads, err := s.query(ctx, query, owner, filename)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrUploadNotFound, owner, filename)
	}
	return &uploads[0], nil
}

// CreateOrLoad returns the stored upload, or a new unsaved one
func (s *sqlUploadMetadataRepository) CreateOrLoad(ctx context.Context, owner, filename string) (*domain.UploadMetadata, error) {
	meta, err := s.Load(ctx, owner, filename)
	if errors.Is(err, domain.ErrUploadNotFound) {
		return domain.NewUploadMetadata(owner, filename, time.Now().UTC()), nil
	}
	return meta, err
}

// Save replaces the stored upload and its chunk rows in one transaction
func (s *sqlUploadMetadataRepository) Save(ctx context.Context, metadata *domain.UploadMetadata) error {
	return s.uow.Execute(ctx, func(q SQLQuerier) error {
		upsert := `
			INSERT INTO upload_metadata (owner, filename, total_bytes, total_declared, created_at, last_update)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (owner, filename) DO UPDATE SET
				total_bytes = EXCLUDED.total_bytes,
				total_declared = EXCLUDED.total_declared,
				last_update = EXCLUDED.last_update`

		var total sql.NullInt64
		if metadata.TotalBytes != nil {
			total = sql.NullInt64{Int64: int64(*metadata.TotalBytes), Valid: true}
		}

		if _, err := q.ExecContext(ctx, upsert,
			metadata.Owner,
			metadata.Filename,
			total,
			metadata.TotalDeclared,
			metadata.CreatedAt,
			metadata.LastUpdate,
		); err != nil {
			return err
		}

		keys := make([]string, 0, len(metadata.Chunks))
		for key := range metadata.Chunks {
			keys = append(keys, key)
		}
		prune := `DELETE FROM upload_chunk WHERE owner = $1 AND filename = $2 AND NOT (range_key = ANY($3))`
		if _, err := q.ExecContext(ctx, prune, metadata.Owner, metadata.Filename, pq.Array(keys)); err != nil {
			return err
		}

		upsertChunk := `
			INSERT INTO upload_chunk (owner, filename, range_key, start_byte, end_byte, size, last_update)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (owner, filename, range_key) DO UPDATE SET
				size = EXCLUDED.size,
				last_update = EXCLUDED.last_update`
		for key, chunk := range metadata.Chunks {
			if _, err := q.ExecContext(ctx, upsertChunk,
				metadata.Owner,
				metadata.Filename,
				key,
				int64(chunk.StartByte),
				int64(chunk.EndByte),
				int64(chunk.Size),
				chunk.LastUpdate,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an upload, chunk rows cascade
func (s *sqlUploadMetadataRepository) Delete(ctx context.Context, owner, filename string) error {
	query := `DELETE FROM upload_metadata WHERE owner = $1 AND filename = $2`

	result, err := s.db.ExecContext(ctx, query, owner, filename)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrUploadNotFound, owner, filename)
	}

	return nil
}

// ListByOwner returns every upload of an owner sorted by filename
func (s *sqlUploadMetadataRepository) ListByOwner(ctx context.Context, owner string) ([]domain.UploadMetadata, error) {
	query := selectUploadQuery + ` WHERE m.owner = $1 ORDER BY m.filename, c.start_byte, c.end_byte`
	return s.query(ctx, query, owner)
}

// ListAll returns the keys of every stored upload
func (s *sqlUploadMetadataRepository) ListAll(ctx context.Context) ([]domain.UploadKey, error) {
	query := `SELECT owner, filename FROM upload_metadata ORDER BY last_update`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.UploadKey
	for rows.Next() {
		var key domain.UploadKey
		if err := rows.Scan(&key.Owner, &key.Filename); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

func (s *sqlUploadMetadataRepository) query(ctx context.Context, query string, args ...any) ([]domain.UploadMetadata, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []domain.UploadMetadata
	index := make(map[domain.UploadKey]int)
	for rows.Next() {
		var row dbUploadRow
		if err := rows.Scan(
			&row.Owner,
			&row.Filename,
			&row.TotalBytes,
			&row.TotalDeclared,
			&row.CreatedAt,
			&row.LastUpdate,
			&row.StartByte,
			&row.EndByte,
			&row.Size,
			&row.ChunkUpdate,
		); err != nil {
			return nil, err
		}

		key := domain.UploadKey{Owner: row.Owner, Filename: row.Filename}
		i, ok := index[key]
		if !ok {
			uploads = append(uploads, *row.ToDomain())
			i = len(uploads) - 1
			index[key] = i
		}
		row.addChunk(&uploads[i])
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range uploads {
		if err := uploads[i].Validate(); err != nil {
			return nil, err
		}
	}
	return uploads, nil
}

type dbUploadRow struct {
	Owner         string        `db:"owner"`
	Filename      string        `db:"filename"`
	TotalBytes    sql.NullInt64 `db:"total_bytes"`
	TotalDeclared bool          `db:"total_declared"`
	CreatedAt     time.Time     `db:"created_at"`
	LastUpdate    time.Time     `db:"last_update"`
	StartByte     sql.NullInt64 `db:"start_byte"`
	EndByte       sql.NullInt64 `db:"end_byte"`
	Size          sql.NullInt64 `db:"size"`
	ChunkUpdate   sql.NullTime  `db:"chunk_last_update"`
}

// ToDomain converts db obj to domain, without chunks
func (r *dbUploadRow) ToDomain() *domain.UploadMetadata {
	meta := &domain.UploadMetadata{
		Owner:         r.Owner,
		Filename:      r.Filename,
		Chunks:        make(map[string]domain.ChunkRecord),
		TotalDeclared: r.TotalDeclared,
		CreatedAt:     r.CreatedAt.UTC(),
		LastUpdate:    r.LastUpdate.UTC(),
	}
	if r.TotalBytes.Valid {
		total := uint64(r.TotalBytes.Int64)
		meta.TotalBytes = &total
	}
	return meta
}

func (r *dbUploadRow) addChunk(meta *domain.UploadMetadata) {
	if !r.StartByte.Valid {
		return
	}
	chunk := domain.ChunkRecord{
		StartByte:  uint64(r.StartByte.Int64),
		EndByte:    uint64(r.EndByte.Int64),
		Size:       uint64(r.Size.Int64),
		LastUpdate: r.ChunkUpdate.Time.UTC(),
	}
	meta.Chunks[chunk.Range().Key()] = chunk
}
