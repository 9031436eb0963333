package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const ledgerSchema = `
	CREATE TABLE IF NOT EXISTS uploads (
		upload_id   TEXT PRIMARY KEY,
		report_name TEXT NOT NULL,
		size_bytes  INTEGER NOT NULL,
		blocks      INTEGER NOT NULL,
		discarded   INTEGER NOT NULL,
		uploaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS uploads_uploaded_at ON uploads (uploaded_at);
`

// Upload is one report that went through the splitter.
type Upload struct {
	ID         string    `json:"upload_id"`
	ReportName string    `json:"report_name"`
	SizeBytes  int64     `json:"size_bytes"`
	Blocks     int       `json:"blocks"`
	Discarded  int       `json:"discarded"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadLedger records upload history in SQLite. Computed filter results are never stored.
type UploadLedger struct {
	db *sql.DB
}

// OpenLedger opens (and creates) the ledger at path. An empty path gives an in-memory ledger.
func OpenLedger(path string) (*UploadLedger, error) {
	dsn := ":memory:"
	if path != "" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if path == "" {
		// Every connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec ledger schema: %w", err)
	}
	return &UploadLedger{db: db}, nil
}

func (l *UploadLedger) Close() error {
	return l.db.Close()
}

// Record stores u, filling in the ID and timestamp when they are unset.
func (l *UploadLedger) Record(ctx context.Context, u *Upload) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now()
	}

	const q = `INSERT INTO uploads (upload_id, report_name, size_bytes, blocks, discarded, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, q, u.ID, u.ReportName, u.SizeBytes, u.Blocks, u.Discarded, u.UploadedAt.UnixNano()); err != nil {
		return fmt.Errorf("record upload %s: %w", u.ReportName, err)
	}
	return nil
}

// Recent returns up to limit uploads, newest first.
func (l *UploadLedger) Recent(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 50
	}

	const q = `SELECT upload_id, report_name, size_bytes, blocks, discarded, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC, rowid DESC LIMIT ?`
	rows, err := l.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]Upload, 0, limit)
	for rows.Next() {
		var u Upload
		var uploadedAt int64
		if err := rows.Scan(&u.ID, &u.ReportName, &u.SizeBytes, &u.Blocks, &u.Discarded, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload row: %w", err)
		}
		u.UploadedAt = time.Unix(0, uploadedAt)
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}
