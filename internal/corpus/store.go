// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists papers and datasets in SQLite. The store is the
// source the semantic indexes are built from and the lookup the agent uses
// to resolve search hits to full records.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/pkg/types"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("corpus record not found")

// Store manages the corpus SQLite database.
type Store struct {
	db  *sql.DB
	log *zap.Logger

	// fts is true when the SQLite build supports FTS5.
	fts bool
}

// Open opens or creates the database at path and creates the schema if it
// does not exist.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating corpus directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			external_id TEXT PRIMARY KEY,
			base_id TEXT NOT NULL,
			title TEXT,
			abstract TEXT,
			authors TEXT,
			tasks TEXT,
			date TEXT,
			url_pdf TEXT,
			url_abs TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_base_id ON papers(base_id)`,
		`CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT,
			full_name TEXT,
			description TEXT,
			short_description TEXT,
			modalities TEXT,
			languages TEXT,
			tasks TEXT,
			introduced_date TEXT,
			license_name TEXT,
			num_papers INTEGER,
			paper_title TEXT,
			url TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 keyword search over papers with triggers for sync. SQLite builds
	// without FTS5 fall back to LIKE matching.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid)`,
		`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
			INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
		`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
		END`,
		`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
	}
	if _, err := s.db.Exec(ftsStatements[0]); err != nil {
		s.log.Debug("fts5 unavailable, keyword search uses LIKE", zap.Error(err))
		return nil
	}
	for _, stmt := range ftsStatements[1:] {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	s.fts = true
	return nil
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Inserted int `json:"inserted" yaml:"inserted"`
	Updated  int `json:"updated" yaml:"updated"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

// Total returns the number of records processed.
func (s ImportSummary) Total() int {
	return s.Inserted + s.Updated + s.Skipped
}

// UpsertPapers inserts or replaces papers in one transaction. Papers without
// an external ID cannot be looked up and are skipped.
func (s *Store) UpsertPapers(ctx context.Context, papers []types.Paper) (ImportSummary, error) {
	var summary ImportSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (external_id, base_id, title, abstract, authors, tasks, date, url_pdf, url_abs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
			base_id=excluded.base_id, title=excluded.title, abstract=excluded.abstract,
			authors=excluded.authors, tasks=excluded.tasks, date=excluded.date,
			url_pdf=excluded.url_pdf, url_abs=excluded.url_abs`)
	if err != nil {
		return summary, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range papers {
		if p.ExternalID == "" {
			summary.Skipped++
			continue
		}
		exists, err := rowExists(ctx, tx, `SELECT 1 FROM papers WHERE external_id = ?`, p.ExternalID)
		if err != nil {
			return summary, err
		}
		_, err = stmt.ExecContext(ctx,
			p.ExternalID, types.NormalizeID(p.ExternalID), p.Title, p.Abstract,
			jsonList(p.Authors), jsonList(p.Tasks), p.Date, p.URLPDF, p.URLAbs)
		if err != nil {
			return summary, fmt.Errorf("upserting paper %s: %w", p.ExternalID, err)
		}
		if exists {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing papers: %w", err)
	}
	return summary, nil
}

// UpsertDatasets inserts or replaces datasets in one transaction. Datasets
// without an ID are skipped.
func (s *Store) UpsertDatasets(ctx context.Context, datasets []types.Dataset) (ImportSummary, error) {
	var summary ImportSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO datasets (id, name, full_name, description, short_description, modalities,
			languages, tasks, introduced_date, license_name, num_papers, paper_title, url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, full_name=excluded.full_name, description=excluded.description,
			short_description=excluded.short_description, modalities=excluded.modalities,
			languages=excluded.languages, tasks=excluded.tasks, introduced_date=excluded.introduced_date,
			license_name=excluded.license_name, num_papers=excluded.num_papers,
			paper_title=excluded.paper_title, url=excluded.url`)
	if err != nil {
		return summary, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range datasets {
		if d.ID == "" {
			summary.Skipped++
			continue
		}
		exists, err := rowExists(ctx, tx, `SELECT 1 FROM datasets WHERE id = ?`, d.ID)
		if err != nil {
			return summary, err
		}
		_, err = stmt.ExecContext(ctx,
			d.ID, d.Name, d.FullName, d.Description, d.ShortDescription,
			jsonList(d.Modalities), jsonList(d.Languages), jsonList(d.Tasks),
			d.IntroducedDate, d.LicenseName, d.NumPapers, d.PaperTitle, d.URL)
		if err != nil {
			return summary, fmt.Errorf("upserting dataset %s: %w", d.ID, err)
		}
		if exists {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing datasets: %w", err)
	}
	return summary, nil
}

const paperColumns = `external_id, title, abstract, authors, tasks, date, url_pdf, url_abs`

// Papers returns every paper in insertion order.
func (s *Store) Papers(ctx context.Context) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+paperColumns+` FROM papers ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

// PaperByExternalID returns the paper with the given ID. An ID without a
// version suffix also matches any stored version of it.
func (s *Store) PaperByExternalID(ctx context.Context, id string) (types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paperColumns+` FROM papers
		 WHERE external_id = ?1 OR base_id = ?1
		 ORDER BY external_id = ?1 DESC, external_id DESC LIMIT 1`, id)
	if err != nil {
		return types.Paper{}, fmt.Errorf("querying paper %s: %w", id, err)
	}
	defer rows.Close()

	papers, err := scanPapers(rows)
	if err != nil {
		return types.Paper{}, err
	}
	if len(papers) == 0 {
		return types.Paper{}, fmt.Errorf("paper %s: %w", id, ErrNotFound)
	}
	return papers[0], nil
}

// SearchPapers returns up to limit papers whose title or abstract matches
// the keywords, best match first.
func (s *Store) SearchPapers(ctx context.Context, keywords string, limit int) ([]types.Paper, error) {
	if limit <= 0 {
		limit = 20
	}
	terms := strings.Fields(keywords)
	if len(terms) == 0 {
		return nil, nil
	}

	var (
		query string
		args  []any
	)
	if s.fts {
		quoted := make([]string, len(terms))
		for i, t := range terms {
			quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
		}
		query = `SELECT p.external_id, p.title, p.abstract, p.authors, p.tasks, p.date, p.url_pdf, p.url_abs
			FROM papers_fts JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ? ORDER BY papers_fts.rank LIMIT ?`
		args = []any{strings.Join(quoted, " "), limit}
	} else {
		var where []string
		for _, t := range terms {
			where = append(where, `(title LIKE ? OR abstract LIKE ?)`)
			like := "%" + t + "%"
			args = append(args, like, like)
		}
		query = `SELECT ` + paperColumns + ` FROM papers WHERE ` + strings.Join(where, " AND ") + ` ORDER BY rowid LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

const datasetColumns = `id, name, full_name, description, short_description, modalities,
	languages, tasks, introduced_date, license_name, num_papers, paper_title, url`

// Datasets returns every dataset in insertion order.
func (s *Store) Datasets(ctx context.Context) ([]types.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+datasetColumns+` FROM datasets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying datasets: %w", err)
	}
	defer rows.Close()
	return scanDatasets(rows)
}

// DatasetByID returns the dataset with the given ID.
func (s *Store) DatasetByID(ctx context.Context, id string) (types.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id = ?`, id)
	if err != nil {
		return types.Dataset{}, fmt.Errorf("querying dataset %s: %w", id, err)
	}
	defer rows.Close()

	ds, err := scanDatasets(rows)
	if err != nil {
		return types.Dataset{}, err
	}
	if len(ds) == 0 {
		return types.Dataset{}, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	return ds[0], nil
}

// Stats counts the stored records.
type Stats struct {
	Papers   int `json:"papers" yaml:"papers"`
	Datasets int `json:"datasets" yaml:"datasets"`

	// FullText reports whether keyword search uses FTS5.
	FullText bool `json:"full_text" yaml:"full_text"`
}

// Stats returns record counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{FullText: s.fts}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&st.Papers); err != nil {
		return st, fmt.Errorf("counting papers: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM datasets`).Scan(&st.Datasets); err != nil {
		return st, fmt.Errorf("counting datasets: %w", err)
	}
	return st, nil
}

func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existing row: %w", err)
	}
	return true, nil
}

func scanPapers(rows *sql.Rows) ([]types.Paper, error) {
	var out []types.Paper
	for rows.Next() {
		var (
			p              types.Paper
			authors, tasks sql.NullString
			title, abs     sql.NullString
			date, pdf, url sql.NullString
		)
		if err := rows.Scan(&p.ExternalID, &title, &abs, &authors, &tasks, &date, &pdf, &url); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.Title, p.Abstract, p.Date, p.URLPDF, p.URLAbs = title.String, abs.String, date.String, pdf.String, url.String
		p.Authors = parseList(authors.String)
		p.Tasks = parseList(tasks.String)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating papers: %w", err)
	}
	return out, nil
}

func scanDatasets(rows *sql.Rows) ([]types.Dataset, error) {
	var out []types.Dataset
	for rows.Next() {
		var (
			d                            types.Dataset
			name, full, desc, short      sql.NullString
			modalities, languages, tasks sql.NullString
			introduced, license          sql.NullString
			paperTitle, url              sql.NullString
			numPapers                    sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &name, &full, &desc, &short, &modalities, &languages, &tasks,
			&introduced, &license, &numPapers, &paperTitle, &url); err != nil {
			return nil, fmt.Errorf("scanning dataset: %w", err)
		}
		d.Name, d.FullName, d.Description, d.ShortDescription = name.String, full.String, desc.String, short.String
		d.Modalities = parseList(modalities.String)
		d.Languages = parseList(languages.String)
		d.Tasks = parseList(tasks.String)
		d.IntroducedDate, d.LicenseName = introduced.String, license.String
		d.NumPapers = int(numPapers.Int64)
		d.PaperTitle, d.URL = paperTitle.String, url.String
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating datasets: %w", err)
	}
	return out, nil
}

func jsonList(v []string) string {
	if v == nil {
		v = []string{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func parseList(s string) []string {
	var out []string
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil || len(out) == 0 {
		return nil
	}
	return out
}
