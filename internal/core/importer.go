package core

import (
	"context"
	"fmt"
	"strings"

	"inventario/internal/logging"
)

// ImportProducts runs one bulk import: parse, per-row validation,
// batched inserts and audit logging. Row-level failures are recorded on
// the log and never abort the run; anything else finalizes the log as
// failed before the error is returned.
func (s *Service) ImportProducts(ctx context.Context, filename string, data []byte) (*ImportSummary, error) {
	// The extension gate runs before any log exists: rejected formats
	// leave no trace in the audit trail.
	if !AllowedExtension(filename) {
		return nil, BadRequest("Formato de archivo no permitido. Use: csv, xlsx, xls")
	}

	log, err := s.logs.Create(ctx, filename)
	if err != nil {
		return nil, err
	}

	opLog := logging.WithFields(ctx, "import_id", log.ID, "filename", filename)
	opLog.Info("import started", "bytes", len(data))

	summary, err := s.runImport(ctx, log.ID, filename, data)
	if err != nil {
		// Force the log to failed before surfacing the error. A failure
		// here is secondary to the original error, so it is only logged.
		fin := ImportLogFinish{
			Status: StatusFailed,
			Errors: []RowError{{Error: UserMessage(err)}},
		}
		if finErr := s.logs.Finish(ctx, log.ID, fin); finErr != nil {
			opLog.Error("failed to finalize import log", "error", finErr)
		}
		opLog.Error("import failed", "error", err)
		return nil, err
	}

	summary.LogID = log.ID
	opLog.Info("import finished",
		"total", summary.TotalRows,
		"successful", summary.SuccessfulRows,
		"failed", summary.FailedRows,
	)
	return summary, nil
}

// runImport does the parse/validate/persist work. The caller owns log
// creation and failure finalization; this function finalizes the log only
// on the success path.
func (s *Service) runImport(ctx context.Context, logID int64, filename string, data []byte) (*ImportSummary, error) {
	header, rows, err := parseFile(filename, data)
	if err != nil {
		return nil, Internal(fmt.Sprintf("Error al leer el archivo: %v", err), err)
	}

	cols, missing := columnIndex(header)
	if missing != nil {
		return nil, BadRequest("Columnas requeridas faltantes: %s", strings.Join(missing, ", "))
	}

	var (
		successful int
		rowErrors  []RowError
		batch      = make([]ProductInput, 0, s.batchSize)
	)

	for i, row := range rows {
		// Row numbers match what the user sees in a spreadsheet: line 1
		// is the header, data starts at 2.
		rowNum := i + 2

		input, rowErr := validateRow(row, cols, rowNum)
		if rowErr != nil {
			rowErrors = append(rowErrors, *rowErr)
			continue
		}

		batch = append(batch, input)
		successful++

		if len(batch) >= s.batchSize {
			if err := s.products.BulkCreate(ctx, batch); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.products.BulkCreate(ctx, batch); err != nil {
			return nil, err
		}
	}

	total := len(rows)
	failed := len(rowErrors)

	fin := ImportLogFinish{
		Status:         StatusCompleted,
		TotalRows:      total,
		SuccessfulRows: successful,
		FailedRows:     failed,
		Errors:         rowErrors,
	}
	if err := s.logs.Finish(ctx, logID, fin); err != nil {
		return nil, err
	}

	responseErrors := rowErrors
	if len(responseErrors) > s.maxResponseErrors {
		responseErrors = responseErrors[:s.maxResponseErrors]
	}

	return &ImportSummary{
		Filename:       filename,
		TotalRows:      total,
		SuccessfulRows: successful,
		FailedRows:     failed,
		Status:         StatusCompleted,
		Message:        fmt.Sprintf("Importación completada: %d exitosos, %d fallidos", successful, failed),
		Errors:         responseErrors,
	}, nil
}
