// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// LocalTable implements Table over a SQLite cell grid. It backs local
// development and dry runs where no spreadsheet is reachable, with the same
// row/column addressing as the Sheets backend.
type LocalTable struct {
	db *sql.DB
}

// OpenLocalTable opens or creates the SQLite table at path.
func OpenLocalTable(path string) (*LocalTable, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening queue database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cells (
		row INTEGER NOT NULL,
		col INTEGER NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (row, col)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cells table: %w", err)
	}

	return &LocalTable{db: db}, nil
}

// Close releases the database connection.
func (t *LocalTable) Close() error {
	return t.db.Close()
}

// ReadAll reconstructs the dense grid from stored cells. Rows with no cells
// at all do not appear unless a later row has data; each returned row is
// padded to the widest populated column.
func (t *LocalTable) ReadAll(ctx context.Context) ([][]string, error) {
	var maxRow int
	err := t.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(row), 0) FROM cells`).Scan(&maxRow)
	if err != nil {
		return nil, fmt.Errorf("sizing grid: %w", err)
	}
	if maxRow == 0 {
		return nil, nil
	}

	grid := make([][]string, maxRow)
	for i := range grid {
		grid[i] = make([]string, SchemaWidth)
	}

	rows, err := t.db.QueryContext(ctx, `SELECT row, col, value FROM cells ORDER BY row, col`)
	if err != nil {
		return nil, fmt.Errorf("reading cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row, col int
		var value string
		if err := rows.Scan(&row, &col, &value); err != nil {
			return nil, fmt.Errorf("scanning cell: %w", err)
		}
		if row < 1 || col < 0 || col >= SchemaWidth {
			continue
		}
		grid[row-1][col] = value
	}
	return grid, rows.Err()
}

// WriteCell upserts one cell.
func (t *LocalTable) WriteCell(ctx context.Context, rowNumber, col int, value string) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO cells (row, col, value) VALUES (?, ?, ?)
		 ON CONFLICT(row, col) DO UPDATE SET value=excluded.value`,
		rowNumber, col, value)
	if err != nil {
		return fmt.Errorf("writing cell (%d,%d): %w", rowNumber, col, err)
	}
	return nil
}

// ImportRows replaces the table contents with the given grid (row 1 is the
// header). Used to seed a local queue from a spreadsheet export.
func (t *LocalTable) ImportRows(ctx context.Context, grid [][]string) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cells`); err != nil {
		return fmt.Errorf("clearing cells: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cells (row, col, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range grid {
		for j, value := range row {
			if value == "" || j >= SchemaWidth {
				continue
			}
			if _, err := stmt.ExecContext(ctx, i+1, j, value); err != nil {
				return fmt.Errorf("inserting cell (%d,%d): %w", i+1, j, err)
			}
		}
	}
	return tx.Commit()
}
