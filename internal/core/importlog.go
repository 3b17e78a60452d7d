package core

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ImportLogStore persists the audit trail of import runs. Logs are only
// ever created and finalized, never deleted.
type ImportLogStore struct {
	db DBTX
}

func NewImportLogStore(db DBTX) *ImportLogStore {
	return &ImportLogStore{db: db}
}

const importLogColumns = "id, filename, total_rows, successful_rows, failed_rows, errors, status, started_at, completed_at"

func scanImportLog(row pgx.Row) (*ImportLog, error) {
	var l ImportLog
	err := row.Scan(&l.ID, &l.Filename, &l.TotalRows, &l.SuccessfulRows, &l.FailedRows,
		&l.Errors, &l.Status, &l.StartedAt, &l.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create opens a new import log in processing state. It is written before
// the file is parsed so aborted runs still leave a record.
func (s *ImportLogStore) Create(ctx context.Context, filename string) (*ImportLog, error) {
	query := `INSERT INTO import_logs (filename, status)
		VALUES ($1, $2) RETURNING ` + importLogColumns

	l, err := scanImportLog(s.db.QueryRow(ctx, query, filename, StatusProcessing))
	if err != nil {
		return nil, Internal("no se pudo registrar la importación", err)
	}
	return l, nil
}

// Finish writes the terminal state of an import run: status, counts, the
// serialized row errors and completed_at. Called exactly once per run.
func (s *ImportLogStore) Finish(ctx context.Context, id int64, fin ImportLogFinish) error {
	var errsJSON *string
	if len(fin.Errors) > 0 {
		raw, err := json.Marshal(fin.Errors)
		if err != nil {
			return Internal("no se pudieron serializar los errores", err)
		}
		str := string(raw)
		errsJSON = &str
	}

	query := `UPDATE import_logs
		SET status = $1, total_rows = $2, successful_rows = $3, failed_rows = $4,
		    errors = $5, completed_at = now()
		WHERE id = $6`

	tag, err := s.db.Exec(ctx, query,
		fin.Status, fin.TotalRows, fin.SuccessfulRows, fin.FailedRows, errsJSON, id)
	if err != nil {
		return Internal("no se pudo finalizar el registro de importación", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("Registro de importación %d no encontrado", id)
	}
	return nil
}

// List returns a page of import logs, most recently started first, plus
// the total count.
func (s *ImportLogStore) List(ctx context.Context, skip, limit int) ([]ImportLog, int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM import_logs").Scan(&total); err != nil {
		return nil, 0, Internal("no se pudieron contar los registros de importación", err)
	}

	query := `SELECT ` + importLogColumns + ` FROM import_logs
		ORDER BY started_at DESC LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, 0, Internal("no se pudieron listar los registros de importación", err)
	}
	defer rows.Close()

	items := []ImportLog{}
	for rows.Next() {
		l, err := scanImportLog(rows)
		if err != nil {
			return nil, 0, Internal("no se pudieron listar los registros de importación", err)
		}
		items = append(items, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, Internal("no se pudieron listar los registros de importación", err)
	}

	return items, total, nil
}

// Get returns an import log by id, NotFound when it does not exist.
func (s *ImportLogStore) Get(ctx context.Context, id int64) (*ImportLog, error) {
	query := `SELECT ` + importLogColumns + ` FROM import_logs WHERE id = $1`

	l, err := scanImportLog(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Registro de importación %d no encontrado", id)
	}
	if err != nil {
		return nil, Internal("no se pudo obtener el registro de importación", err)
	}
	return l, nil
}
