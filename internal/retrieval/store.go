package retrieval

import (
	"container/heap"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides vector storage and brute-force cosine similarity search
// backed by SQLite. Chunks are partitioned into named logical indices
// ("resume", "project"); a search only ever scans one index.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	idx TEXT NOT NULL,
	text_chunk TEXT NOT NULL,
	embedding BLOB NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS chunks_by_idx ON chunks(idx);
`

// Record is a stored text chunk with its embedding.
type Record struct {
	ID        string
	Index     string
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredChunk is a Record with a similarity score attached.
type ScoredChunk struct {
	Record
	Score float32
}

// Open opens (or creates) the vector store at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vector store schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert adds records to the store.
func (s *Store) Insert(records []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (id, idx, text_chunk, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		blob := encodeFloat32s(r.Embedding)
		if _, err := stmt.Exec(r.ID, r.Index, r.Text, blob, createdAt.Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteIndex removes every chunk of the named index. Rebuilding an index is
// a delete followed by an insert.
func (s *Store) DeleteIndex(index string) error {
	if _, err := s.db.Exec(`DELETE FROM chunks WHERE idx = ?`, index); err != nil {
		return fmt.Errorf("deleting index %q: %w", index, err)
	}
	return nil
}

// HasIndex reports whether the named index holds at least one chunk.
func (s *Store) HasIndex(index string) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM chunks WHERE idx = ? LIMIT 1`, index).Scan(&one)
	return err == nil
}

// Count returns the number of chunks in the named index.
func (s *Store) Count(index string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE idx = ?`, index).Scan(&count)
	return count, err
}

// Search performs brute-force cosine similarity search over the named index,
// returning the top-K most similar chunks ordered by descending score.
func (s *Store) Search(index string, vector []float32, topK int) ([]ScoredChunk, error) {
	queryNorm := norm(vector)
	if queryNorm == 0 || topK <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`SELECT id, idx, text_chunk, embedding, created_at FROM chunks WHERE idx = ?`, index)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	h := &scoredHeap{}
	heap.Init(h)

	var buf []float32
	for rows.Next() {
		var r Record
		var blob []byte
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Index, &r.Text, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		buf, err = decodeFloat32sInto(buf, blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", r.ID, err)
		}

		score := cosine(vector, buf, queryNorm)
		if h.Len() < topK {
			t, err := time.Parse(time.RFC3339, createdAt)
			if err == nil {
				r.CreatedAt = t
			}
			heap.Push(h, ScoredChunk{Record: r, Score: score})
		} else if score > (*h)[0].Score {
			t, err := time.Parse(time.RFC3339, createdAt)
			if err == nil {
				r.CreatedAt = t
			}
			(*h)[0] = ScoredChunk{Record: r, Score: score}
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	// Drain the min-heap into descending order.
	results := make([]ScoredChunk, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(ScoredChunk)
	}

	return results, nil
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32sInto decodes little-endian bytes into the provided buffer,
// reusing it to avoid per-row allocations during search scans.
func decodeFloat32sInto(buf []float32, b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	if cap(buf) < n {
		buf = make([]float32, n)
	} else {
		buf = buf[:n]
	}
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return buf, nil
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// cosine computes cosine similarity as dot(a,b) / (aNorm * bNorm), with
// aNorm precomputed by the caller.
func cosine(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	var bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}

// scoredHeap is a min-heap of ScoredChunk ordered by Score, used to track
// top-K candidates during a scan.
type scoredHeap []ScoredChunk

func (h scoredHeap) Len() int           { return len(h) }
func (h scoredHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h scoredHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x any)        { *h = append(*h, x.(ScoredChunk)) }
func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
