package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// MetadataDB handles SQLite database operations.
type MetadataDB struct {
	db *sql.DB
}

// TranscriptRecord is one row of the transcripts table.
type TranscriptRecord struct {
	JobID       string    `json:"job_id"`
	RequestName string    `json:"request_name"`
	SourceType  string    `json:"source_type"`
	Language    string    `json:"language"`
	Speakers    []string  `json:"speakers"`
	GDriveURL   string    `json:"gdrive_url"`
	LocalPath   string    `json:"local_path"`
	CreatedAt   time.Time `json:"created_at"`
	Duration    float64   `json:"duration"`
	WordCount   int       `json:"word_count"`
}

// NewMetadataDB opens (and if needed creates) the metadata database.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		request_name TEXT NOT NULL,
		source_type TEXT NOT NULL,
		language TEXT,
		speakers TEXT,
		gdrive_url TEXT,
		local_path TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		duration REAL,
		word_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON transcripts(created_at);
	CREATE INDEX IF NOT EXISTS idx_request_name ON transcripts(request_name);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveTranscript saves transcript metadata to the database.
func (mdb *MetadataDB) SaveTranscript(rec TranscriptRecord) error {
	query := `
	INSERT INTO transcripts (job_id, request_name, source_type, language, speakers, gdrive_url, local_path, created_at, duration, word_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := mdb.db.Exec(query,
		rec.JobID, rec.RequestName, rec.SourceType, rec.Language,
		strings.Join(rec.Speakers, ","), rec.GDriveURL, rec.LocalPath,
		createdAt, rec.Duration, rec.WordCount)
	if err != nil {
		return fmt.Errorf("failed to save transcript metadata: %w", err)
	}

	return nil
}

// GetTranscript retrieves transcript metadata by job ID.
func (mdb *MetadataDB) GetTranscript(jobID string) (*TranscriptRecord, error) {
	query := `
	SELECT job_id, request_name, source_type, language, speakers, gdrive_url, local_path, created_at, duration, word_count
	FROM transcripts WHERE job_id = ?
	`

	rec, err := scanRecord(mdb.db.QueryRow(query, jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return rec, nil
}

// ListTranscripts returns the most recent transcripts.
func (mdb *MetadataDB) ListTranscripts(limit int) ([]*TranscriptRecord, error) {
	query := `
	SELECT job_id, request_name, source_type, language, speakers, gdrive_url, local_path, created_at, duration, word_count
	FROM transcripts ORDER BY created_at DESC LIMIT ?
	`

	rows, err := mdb.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var records []*TranscriptRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*TranscriptRecord, error) {
	var rec TranscriptRecord
	var speakers string
	err := row.Scan(&rec.JobID, &rec.RequestName, &rec.SourceType, &rec.Language,
		&speakers, &rec.GDriveURL, &rec.LocalPath, &rec.CreatedAt,
		&rec.Duration, &rec.WordCount)
	if err != nil {
		return nil, err
	}
	if speakers != "" {
		rec.Speakers = strings.Split(speakers, ",")
	}
	return &rec, nil
}

// Close closes the database connection.
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
