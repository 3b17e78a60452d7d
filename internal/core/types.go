package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the stores need. Tests substitute
// fakes; production passes the pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Product is an inventory item. Field names follow the external contract:
// the import/export column set is Spanish and the JSON API mirrors it.
type Product struct {
	ID          int64      `json:"id"`
	Nombre      string     `json:"nombre"`
	Descripcion *string    `json:"descripcion"`
	Precio      float64    `json:"precio"`
	Stock       int        `json:"stock"`
	Categoria   string     `json:"categoria"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// ProductInput carries the writable fields for creating a product.
type ProductInput struct {
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Precio      float64 `json:"precio"`
	Stock       int     `json:"stock"`
	Categoria   string  `json:"categoria"`
}

// ProductUpdate carries a partial update. Nil fields are left unchanged.
type ProductUpdate struct {
	Nombre      *string  `json:"nombre"`
	Descripcion *string  `json:"descripcion"`
	Precio      *float64 `json:"precio"`
	Stock       *int     `json:"stock"`
	Categoria   *string  `json:"categoria"`
}

// ProductFilter narrows product listings. Zero values mean "no filter";
// Skip/Limit are resolved against the configured pagination bounds by the
// service before reaching the store.
type ProductFilter struct {
	Categoria string
	Nombre    string
	PrecioMin *float64
	PrecioMax *float64
	StockMin  *int
	Skip      int
	Limit     int
}

// Import run status values.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ImportLog is the audit record of one import run.
type ImportLog struct {
	ID             int64      `json:"id"`
	Filename       string     `json:"filename"`
	TotalRows      int        `json:"total_rows"`
	SuccessfulRows int        `json:"successful_rows"`
	FailedRows     int        `json:"failed_rows"`
	Errors         *string    `json:"errors"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// ImportLogFinish carries the terminal state written to an import log.
type ImportLogFinish struct {
	Status         string
	TotalRows      int
	SuccessfulRows int
	FailedRows     int
	Errors         []RowError
}

// RowError describes one rejected row from an import file.
type RowError struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
	Error string `json:"error"`
}

// ImportSummary is the response body of an import run.
type ImportSummary struct {
	LogID          int64      `json:"log_id"`
	Filename       string     `json:"filename"`
	TotalRows      int        `json:"total_rows"`
	SuccessfulRows int        `json:"successful_rows"`
	FailedRows     int        `json:"failed_rows"`
	Status         string     `json:"status"`
	Message        string     `json:"message"`
	Errors         []RowError `json:"errors"`
}

// importColumns is the required header set for import files and the exact
// column order for exports and templates (id prepended on export).
var importColumns = []string{"nombre", "descripcion", "precio", "stock", "categoria"}

// exportColumns is the header row for product exports.
var exportColumns = []string{"id", "nombre", "descripcion", "precio", "stock", "categoria"}
