package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/educhainx/credential-gateway/internal/admin"
	"github.com/educhainx/credential-gateway/internal/credential"
	"github.com/educhainx/credential-gateway/internal/verification"
)

// SqliteStore is the durable backing store. The in-memory registry and ledger
// stay authoritative at runtime; this store only sees whole snapshots at
// process boundaries and scheduler ticks.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens (and if needed initializes) the database at dbPath.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return store, nil
}

// Init creates the schema.
func (s *SqliteStore) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS certificates (
			subject TEXT PRIMARY KEY,
			holder_name TEXT NOT NULL,
			course TEXT NOT NULL,
			institution TEXT NOT NULL,
			issued_at INTEGER NOT NULL,
			revoked BOOLEAN NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create certificates table: %w", err)
	}

	// position keeps the ledger's insertion order across restarts.
	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS verifications (
			position INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			holder_name TEXT NOT NULL,
			institution TEXT NOT NULL,
			degree TEXT NOT NULL,
			transcript_hash TEXT NOT NULL,
			verified_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create verifications table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			position INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			student_id TEXT NOT NULL,
			amount REAL NOT NULL,
			type TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			flagged BOOLEAN NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create transactions table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create configuration table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create credentials table: %w", err)
	}

	return nil
}

// Close closes the database.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// SaveCertificates replaces the stored certificate snapshot.
func (s *SqliteStore) SaveCertificates(certs []credential.Certificate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin certificate save: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("failed to roll back certificate save", "err", rbErr)
		}
	}()

	if _, err := tx.Exec("DELETE FROM certificates"); err != nil {
		return fmt.Errorf("failed to clear certificates: %w", err)
	}
	for _, cert := range certs {
		_, err := tx.Exec(
			"INSERT INTO certificates (subject, holder_name, course, institution, issued_at, revoked) VALUES (?, ?, ?, ?, ?, ?)",
			string(cert.Subject), cert.HolderName, cert.Course, cert.Institution, cert.IssuedAt, cert.Revoked,
		)
		if err != nil {
			return fmt.Errorf("failed to store certificate for %s: %w", cert.Subject, err)
		}
	}

	return tx.Commit()
}

// LoadCertificates retrieves the stored certificate snapshot.
func (s *SqliteStore) LoadCertificates() ([]credential.Certificate, error) {
	rows, err := s.db.Query("SELECT subject, holder_name, course, institution, issued_at, revoked FROM certificates")
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Error("failed to close certificates query", "err", closeErr)
		}
	}()

	var certs []credential.Certificate
	for rows.Next() {
		var cert credential.Certificate
		var subject string
		if err := rows.Scan(&subject, &cert.HolderName, &cert.Course, &cert.Institution, &cert.IssuedAt, &cert.Revoked); err != nil {
			return nil, fmt.Errorf("failed to scan certificate row: %w", err)
		}
		cert.Subject = credential.Identity(subject)
		certs = append(certs, cert)
	}

	return certs, rows.Err()
}

// SaveRecords replaces the stored ledger snapshot, preserving order.
func (s *SqliteStore) SaveRecords(records []verification.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin record save: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("failed to roll back record save", "err", rbErr)
		}
	}()

	if _, err := tx.Exec("DELETE FROM verifications"); err != nil {
		return fmt.Errorf("failed to clear verifications: %w", err)
	}
	for i, rec := range records {
		_, err := tx.Exec(
			"INSERT INTO verifications (position, id, holder_name, institution, degree, transcript_hash, verified_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			i+1, rec.ID.String(), rec.HolderName, rec.Institution, rec.Degree, rec.TranscriptHash, rec.VerifiedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to store verification record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// LoadRecords retrieves the stored ledger snapshot in insertion order.
func (s *SqliteStore) LoadRecords() ([]verification.Record, error) {
	rows, err := s.db.Query("SELECT id, holder_name, institution, degree, transcript_hash, verified_at FROM verifications ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query verifications: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Error("failed to close verifications query", "err", closeErr)
		}
	}()

	var records []verification.Record
	for rows.Next() {
		var rec verification.Record
		var id string
		var verifiedAt time.Time
		if err := rows.Scan(&id, &rec.HolderName, &rec.Institution, &rec.Degree, &rec.TranscriptHash, &verifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification row: %w", err)
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid record id %s: %w", id, err)
		}
		rec.VerifiedAt = verifiedAt
		records = append(records, rec)
	}

	return records, rows.Err()
}

// SaveTransactions replaces the stored transaction log, preserving order.
func (s *SqliteStore) SaveTransactions(txs []admin.Transaction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction save: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("failed to roll back transaction save", "err", rbErr)
		}
	}()

	if _, err := tx.Exec("DELETE FROM transactions"); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	for i, entry := range txs {
		_, err := tx.Exec(
			"INSERT INTO transactions (position, id, student_id, amount, type, timestamp, flagged) VALUES (?, ?, ?, ?, ?, ?, ?)",
			i+1, entry.ID.String(), entry.StudentID, entry.Amount, entry.Type, entry.Timestamp, entry.Flagged,
		)
		if err != nil {
			return fmt.Errorf("failed to store transaction %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// LoadTransactions retrieves the stored transaction log in insertion order.
func (s *SqliteStore) LoadTransactions() ([]admin.Transaction, error) {
	rows, err := s.db.Query("SELECT id, student_id, amount, type, timestamp, flagged FROM transactions ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Error("failed to close transactions query", "err", closeErr)
		}
	}()

	var txs []admin.Transaction
	for rows.Next() {
		var entry admin.Transaction
		var id string
		var timestamp time.Time
		if err := rows.Scan(&id, &entry.StudentID, &entry.Amount, &entry.Type, &timestamp, &entry.Flagged); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		entry.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction id %s: %w", id, err)
		}
		entry.Timestamp = timestamp
		txs = append(txs, entry)
	}

	return txs, rows.Err()
}

// GetConfigValue retrieves a configuration value.
func (s *SqliteStore) GetConfigValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM configuration WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get config value for key %s: %w", key, err)
	}
	return value, nil
}

// SetConfigValue sets a configuration value.
func (s *SqliteStore) SetConfigValue(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO configuration (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("failed to set config value for key %s: %w", key, err)
	}
	return nil
}

// GetCredential retrieves a credential value.
func (s *SqliteStore) GetCredential(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get credential for key %s: %w", key, err)
	}
	return value, nil
}

// SetCredential sets a credential value.
func (s *SqliteStore) SetCredential(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO credentials (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("failed to set credential for key %s: %w", key, err)
	}
	return nil
}
