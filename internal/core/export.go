package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// exportSheetName is the worksheet products are exported to.
const exportSheetName = "Productos"

func productRecord(p Product) []string {
	descripcion := ""
	if p.Descripcion != nil {
		descripcion = *p.Descripcion
	}
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Nombre,
		descripcion,
		strconv.FormatFloat(p.Precio, 'f', 2, 64),
		strconv.Itoa(p.Stock),
		p.Categoria,
	}
}

// ExportCSV renders the full product set as a CSV document. Exports are
// built in memory; the product table is bounded by what imports allow.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	products, err := s.products.AllForExport(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, Internal("no se pudo generar el CSV", err)
	}
	for _, p := range products {
		if err := w.Write(productRecord(p)); err != nil {
			return nil, Internal("no se pudo generar el CSV", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, Internal("no se pudo generar el CSV", err)
	}

	return buf.Bytes(), nil
}

// ExportExcel renders the full product set as an xlsx workbook with a
// single "Productos" sheet.
func (s *Service) ExportExcel(ctx context.Context) ([]byte, error) {
	products, err := s.products.AllForExport(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), exportSheetName)

	header := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		return nil, Internal("no se pudo generar el Excel", err)
	}

	for i, p := range products {
		descripcion := ""
		if p.Descripcion != nil {
			descripcion = *p.Descripcion
		}
		row := []any{p.ID, p.Nombre, descripcion, roundPrice(p.Precio), p.Stock, p.Categoria}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return nil, Internal("no se pudo generar el Excel", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, Internal("no se pudo generar el Excel", err)
	}
	return buf.Bytes(), nil
}

// ImportTemplate returns a header-only file in the required column order,
// ready to be filled out and imported. Format is "csv" or "xlsx".
func (s *Service) ImportTemplate(format string) ([]byte, error) {
	switch format {
	case "", "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(importColumns); err != nil {
			return nil, Internal("no se pudo generar la plantilla", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, Internal("no se pudo generar la plantilla", err)
		}
		return buf.Bytes(), nil

	case "xlsx":
		f := excelize.NewFile()
		defer f.Close()
		f.SetSheetName(f.GetSheetName(0), exportSheetName)

		header := make([]any, len(importColumns))
		for i, col := range importColumns {
			header[i] = col
		}
		if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
			return nil, Internal("no se pudo generar la plantilla", err)
		}

		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return nil, Internal("no se pudo generar la plantilla", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, BadRequest("Formato de plantilla no permitido. Use: csv, xlsx")
	}
}

// errorReportColumns is the header of the per-run error report download.
var errorReportColumns = []string{"Fila", "Campo", "Valor", "Error"}

// ExportImportErrors renders the row errors of an import run as CSV.
// NotFound when the run does not exist or recorded no failures. Malformed
// stored JSON degrades to an empty report rather than an error.
func (s *Service) ExportImportErrors(ctx context.Context, logID int64) ([]byte, error) {
	log, err := s.logs.Get(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.FailedRows == 0 || log.Errors == nil {
		return nil, NotFound("El registro de importación %d no tiene errores", logID)
	}

	var rowErrors []RowError
	if err := json.Unmarshal([]byte(*log.Errors), &rowErrors); err != nil {
		rowErrors = nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(errorReportColumns); err != nil {
		return nil, Internal("no se pudo generar el reporte de errores", err)
	}
	for _, re := range rowErrors {
		record := []string{strconv.Itoa(re.Row), re.Field, re.Value, re.Error}
		if err := w.Write(record); err != nil {
			return nil, Internal("no se pudo generar el reporte de errores", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, Internal("no se pudo generar el reporte de errores", err)
	}

	return buf.Bytes(), nil
}
