package web

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"inventario/internal/core"
	"inventario/internal/logging"
	webmw "inventario/internal/web/middleware"
)

// handleImport accepts a multipart upload under the "file" field and runs
// the import pipeline on it.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		s.respondError(w, r, core.BadRequest("el archivo excede el tamaño máximo permitido"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.BadRequest("no se proporcionó ningún archivo"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, core.Internal("no se pudo leer el archivo", err))
		return
	}

	logging.FromContext(r.Context()).Info("import requested",
		"filename", header.Filename,
		"size", len(data),
		"user", webmw.CurrentUser(r.Context()),
	)

	summary, err := s.service.ImportProducts(r.Context(), header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")

	data, err := s.service.ImportTemplate(format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if format == "xlsx" {
		serveAttachment(w, "plantilla_productos.xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
		return
	}
	serveAttachment(w, "plantilla_productos.csv", "text/csv; charset=utf-8", data)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportCSV(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	serveAttachment(w, exportFilename("csv"), "text/csv; charset=utf-8", data)
}

func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportExcel(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	serveAttachment(w, exportFilename("xlsx"),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	skip, limit := s.service.PageBounds(queryInt(r, "skip", 0), queryInt(r, "limit", 0))

	items, total, err := s.service.ImportLogs(r.Context(), skip, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Total: total,
		Skip:  skip,
		Limit: limit,
		Items: items,
	})
}

func (s *Server) handleDownloadErrors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data, err := s.service.ExportImportErrors(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	serveAttachment(w, fmt.Sprintf("errores_importacion_%d.csv", id), "text/csv; charset=utf-8", data)
}

func exportFilename(ext string) string {
	return fmt.Sprintf("productos_%s.%s", time.Now().Format("20060102_150405"), ext)
}

func serveAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
