package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/corpora/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	rowid_ord   INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL,
	document_id TEXT NOT NULL,
	text        TEXT NOT NULL,
	position    INTEGER NOT NULL,
	embedding   BLOB,
	metadata    TEXT NOT NULL
);
`

// Persist writes the store's contents to the database file, replacing
// whatever was persisted before.
func (s *Store) Persist(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	db, err := openDB(s.path)
	if err != nil {
		return err
	}
	defer db.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin persist: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, text, position, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range s.chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for chunk %s: %w", chunk.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentID, chunk.Text, chunk.Position,
			float32SliceToBytes(s.vectors[i]), string(metadataJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit persist: %w", err)
	}
	return nil
}

// Load replaces the store's contents from the database file. A missing
// file loads as empty.
func (s *Store) Load(ctx context.Context) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.mu.Lock()
		s.chunks = nil
		s.vectors = nil
		s.mu.Unlock()
		return nil
	}

	db, err := openDB(s.path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, text, position, embedding, metadata
		FROM chunks ORDER BY rowid_ord
	`)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	var vectors [][]float32
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var metadataJSON string

		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
			&chunk.Position, &embeddingBlob, &metadataJSON); err != nil {
			return fmt.Errorf("scanning chunk: %w", err)
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}

		chunks = append(chunks, chunk)
		vectors = append(vectors, bytesToFloat32Slice(embeddingBlob))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading chunks: %w", err)
	}

	s.mu.Lock()
	s.chunks = chunks
	s.vectors = vectors
	s.mu.Unlock()
	return nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// float32SliceToBytes converts a []float32 to a little-endian byte
// slice for storage.
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
