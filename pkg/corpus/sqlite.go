package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// OpenDB opens a corpus database with the driver selected at build time: the
// pure Go modernc.org/sqlite by default, or github.com/mattn/go-sqlite3 when
// built with the cgo_sqlite tag.
func OpenDB(dsn string) (*sql.DB, error) {
	return sql.Open(driverName, dsn)
}

// SetupSchema initializes the corpus tables in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const (
		schemaCorpora = `
CREATE TABLE IF NOT EXISTS corpora (
    corpus_id INTEGER PRIMARY KEY,
    corpus_name TEXT NOT NULL UNIQUE
);
`
		schemaEntries = `
CREATE TABLE IF NOT EXISTS corpus_entries (
    corpus_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    entry_text TEXT NOT NULL,
    PRIMARY KEY (corpus_id, position)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaCorpora); err != nil {
		return fmt.Errorf("could not create corpora schema: %w", err)
	}
	if _, err = tx.Exec(schemaEntries); err != nil {
		return fmt.Errorf("could not create entries schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store keeps named corpora in a SQLite database. Each corpus is stored in
// full; importing a name again replaces its entries.
type Store struct {
	db              *sql.DB
	stmtGetCorpusID *sql.Stmt
	stmtGetNames    *sql.Stmt
	stmtGetEntries  *sql.Stmt
	logger          *slog.Logger
}

// NewStore prepares the statements a Store needs. The schema must already
// exist, see SetupSchema.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetCorpusID, err := db.Prepare(`SELECT corpus_id FROM corpora WHERE corpus_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetNames, err := db.Prepare(`SELECT corpus_name FROM corpora ORDER BY corpus_name;`)
	if err != nil {
		return nil, err
	}

	stmtGetEntries, err := db.Prepare(`SELECT e.entry_text FROM corpus_entries e JOIN corpora c ON c.corpus_id = e.corpus_id WHERE c.corpus_name = ? ORDER BY e.position;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:              db,
		stmtGetCorpusID: stmtGetCorpusID,
		stmtGetNames:    stmtGetNames,
		stmtGetEntries:  stmtGetEntries,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements. It does not close the database.
func (s *Store) Close() {
	_ = s.stmtGetCorpusID.Close()
	_ = s.stmtGetNames.Close()
	_ = s.stmtGetEntries.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Import stores entries under name, replacing any corpus already stored under
// that name. The operation is performed within a transaction.
func (s *Store) Import(ctx context.Context, name string, entries []string) error {
	if name == "" {
		return errors.New("corpus name must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var corpusID int64
	err = tx.StmtContext(ctx, s.stmtGetCorpusID).QueryRowContext(ctx, name).Scan(&corpusID)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx, `INSERT INTO corpora (corpus_name) VALUES (?);`, name)
		if err != nil {
			return fmt.Errorf("failed to insert corpus '%s': %w", name, err)
		}
		if corpusID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read id of corpus '%s': %w", name, err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to query for corpus '%s': %w", name, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM corpus_entries WHERE corpus_id = ?;`, corpusID); err != nil {
		return fmt.Errorf("failed to clear corpus '%s': %w", name, err)
	}

	stmtInsert, err := tx.PrepareContext(ctx, `INSERT INTO corpus_entries (corpus_id, position, entry_text) VALUES (?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsert)

	for i, entry := range entries {
		if _, err = stmtInsert.ExecContext(ctx, corpusID, i, entry); err != nil {
			return fmt.Errorf("failed to insert entry %d of corpus '%s': %w", i, name, err)
		}
	}

	s.logger.InfoContext(ctx, "Corpus imported",
		slog.String("corpus_name", name),
		slog.Int64("corpus_id", corpusID),
		slog.Int("entries", len(entries)),
	)

	return tx.Commit()
}

// Names lists the stored corpora in alphabetical order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.stmtGetNames.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var names []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// Entries returns the corpus stored under name, in import order. It returns
// sql.ErrNoRows if no such corpus exists.
func (s *Store) Entries(ctx context.Context, name string) ([]string, error) {
	var corpusID int64
	if err := s.stmtGetCorpusID.QueryRowContext(ctx, name).Scan(&corpusID); err != nil {
		return nil, err
	}

	rows, err := s.stmtGetEntries.QueryContext(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	entries := []string{}
	for rows.Next() {
		var entry string
		if err = rows.Scan(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Remove deletes a corpus and its entries. Removing an unknown name is not an
// error.
func (s *Store) Remove(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, `DELETE FROM corpus_entries WHERE corpus_id IN (SELECT corpus_id FROM corpora WHERE corpus_name = ?);`, name); err != nil {
		return fmt.Errorf("failed to remove entries of corpus '%s': %w", name, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM corpora WHERE corpus_name = ?;`, name); err != nil {
		return fmt.Errorf("failed to remove corpus '%s': %w", name, err)
	}

	s.logger.InfoContext(ctx, "Corpus removed", slog.String("corpus_name", name))
	return tx.Commit()
}

// SQLiteSource loads one named corpus from a SQLite database. The database is
// opened for each Load and closed afterwards.
type SQLiteSource struct {
	DSN  string
	Name string
}

// NewSQLiteSource returns a SQLiteSource for the corpus called name in the
// database at dsn.
func NewSQLiteSource(dsn, name string) *SQLiteSource {
	return &SQLiteSource{DSN: dsn, Name: name}
}

// Load reads the corpus. A missing database, table or corpus is unavailable.
func (s *SQLiteSource) Load(ctx context.Context) ([]string, error) {
	db, err := OpenDB(s.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, s, err)
	}
	defer func(db *sql.DB) {
		_ = db.Close()
	}(db)

	store, err := NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, s, err)
	}
	defer store.Close()

	entries, err := store.Entries(ctx, s.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, s, err)
	}
	return entries, nil
}

func (s *SQLiteSource) String() string {
	return sqlitePrefix + s.DSN + "#" + s.Name
}
