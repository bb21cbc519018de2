// Package store persists extracted page text in sqlite so the server can
// list indexed documents and answer library-wide full text queries without
// re-extracting every PDF. It holds no search state: in-document search
// always runs over the live page indexes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Document is one indexed PDF in the library.
type Document struct {
	ID    int64
	Name  string
	Path  string
	Pages int
}

// PageText is the extracted text of one page.
type PageText struct {
	DocumentID int64
	PageNum    int
	Text       string
}

// Result is one full-text hit across the library.
type Result struct {
	DocumentID int64
	Name       string
	PageNum    int
	Snippet    string
}

type Store struct {
	db *sql.DB
}

// Open connects to the sqlite database at path, creating it if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragma: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Init creates the schema. The pages table is an FTS5 virtual table so
// library-wide queries use sqlite's full text index rather than scanning.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS documents(
		id INTEGER NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		pages INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}

	// Virtual tables do not support primary keys; document_id and page_num
	// ride along unindexed. See https://www.sqlite.org/fts5.html
	_, err = s.db.ExecContext(ctx, `
	CREATE VIRTUAL TABLE IF NOT EXISTS pages USING fts5(
		document_id UNINDEXED,
		page_num UNINDEXED,
		text,
		tokenize='porter unicode61 remove_diacritics 2'
	)`)
	return err
}

// InsertDocument stores a document record and returns its id. Re-indexing
// the same path replaces the previous record and its pages.
func (s *Store) InsertDocument(ctx context.Context, d Document) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var oldID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE path = $1`, d.Path).Scan(&oldID)
	if err == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE document_id = $1`, oldID); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, oldID); err != nil {
			return 0, err
		}
	} else if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents(name, path, pages) VALUES ($1, $2, $3)`,
		d.Name, d.Path, d.Pages)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// insertBatchSize keeps each statement well under sqlite's variable limit.
const insertBatchSize = 300

// InsertPages stores page text in batches inside one transaction.
func (s *Store) InsertPages(ctx context.Context, pages []PageText) error {
	if len(pages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for start := 0; start < len(pages); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(pages) {
			end = len(pages)
		}
		batch := pages[start:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*3)
		for _, pg := range batch {
			placeholders = append(placeholders, "(?, ?, ?)")
			args = append(args, pg.DocumentID, pg.PageNum, pg.Text)
		}

		query := `INSERT INTO pages(document_id, page_num, text) VALUES ` +
			strings.Join(placeholders, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Documents lists all indexed documents sorted by name.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, pages FROM documents ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Path, &d.Pages); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Document fetches one document by id.
func (s *Store) Document(ctx context.Context, id int64) (Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, path, pages FROM documents WHERE id = $1 LIMIT 1`, id).
		Scan(&d.ID, &d.Name, &d.Path, &d.Pages)
	return d, err
}

// Search runs a full-text query across the whole library and returns up to
// limit hits with highlighted snippets, best-ranked first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT p.document_id, d.name, p.page_num,
	       snippet(p.pages, 2, '<b>', '</b>', '…', 12)
	FROM pages p
	JOIN documents d ON d.id = p.document_id
	WHERE p.pages MATCH $1
	ORDER BY rank
	LIMIT $2`, ftsQuote(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.DocumentID, &r.Name, &r.PageNum, &r.Snippet); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuote wraps the query in a quoted FTS string so user input cannot
// inject match syntax.
func ftsQuote(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}
