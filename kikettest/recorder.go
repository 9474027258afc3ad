package kikettest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RecordedDelivery is one webhook delivery captured by a Recorder.
type RecordedDelivery struct {
	ID         string
	Event      string
	Version    string
	Body       []byte
	Headers    http.Header
	ReceivedAt time.Time
}

// Recorder persists webhook deliveries to SQLite so captured traffic can be
// replayed against handlers later.
type Recorder struct {
	db *sql.DB
}

// OpenRecorder opens (and creates if needed) the recorder database at path.
func OpenRecorder(ctx context.Context, path string) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("recorder path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create recorder directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recorder database: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS deliveries (
  id          TEXT PRIMARY KEY,
  event       TEXT NOT NULL,
  version     TEXT NOT NULL,
  body        BLOB NOT NULL,
  headers     JSON NOT NULL,
  received_at TEXT NOT NULL
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap recorder schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS deliveries_event_received_at_idx ON deliveries(event, received_at);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap recorder index: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error { return r.db.Close() }

// Record stores one delivery and returns its assigned ID.
func (r *Recorder) Record(ctx context.Context, event, version string, body []byte, headers http.Header) (string, error) {
	if event == "" {
		return "", fmt.Errorf("event name is empty")
	}
	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return "", fmt.Errorf("marshal delivery headers: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO deliveries (id, event, version, body, headers, received_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, event, version, body, string(headerJSON), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("record delivery: %w", err)
	}
	return id, nil
}

// List returns the deliveries captured for event, oldest first. An empty
// event returns everything.
func (r *Recorder) List(ctx context.Context, event string) ([]RecordedDelivery, error) {
	query := `SELECT id, event, version, body, headers, received_at FROM deliveries ORDER BY rowid`
	args := []any{}
	if event != "" {
		query = `SELECT id, event, version, body, headers, received_at FROM deliveries WHERE event = ? ORDER BY rowid`
		args = append(args, event)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []RecordedDelivery
	for rows.Next() {
		var (
			d          RecordedDelivery
			headerJSON string
			receivedAt string
		)
		if err := rows.Scan(&d.ID, &d.Event, &d.Version, &d.Body, &headerJSON, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if err := json.Unmarshal([]byte(headerJSON), &d.Headers); err != nil {
			return nil, fmt.Errorf("decode delivery headers: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, receivedAt); err == nil {
			d.ReceivedAt = ts
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ReplayAll replays every captured delivery for event against handler and
// returns the decoded responses in capture order.
func (r *Recorder) ReplayAll(ctx context.Context, handler http.Handler, event string) ([]map[string]any, error) {
	deliveries, err := r.List(ctx, event)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(deliveries))
	for _, d := range deliveries {
		resp, err := Replay(handler, d.Event, d.Version, d.Body)
		if err != nil {
			return results, fmt.Errorf("replay delivery %s: %w", d.ID, err)
		}
		results = append(results, resp)
	}
	return results, nil
}
