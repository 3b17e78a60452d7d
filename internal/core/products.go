package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProductStore persists products. SQL lives here so the service layer and
// the import pipeline stay free of query strings.
type ProductStore struct {
	db DBTX
}

func NewProductStore(db DBTX) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = "id, nombre, descripcion, precio, stock, categoria, created_at, updated_at"

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Stock, &p.Categoria, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns a page of products matching the filter plus the total count
// of matches before pagination.
func (s *ProductStore) List(ctx context.Context, f ProductFilter) ([]Product, int64, error) {
	wb := NewWhereBuilder()
	wb.Add("categoria", f.Categoria)
	wb.AddILike("nombre", f.Nombre)
	if f.PrecioMin != nil {
		wb.AddCompare("precio", ">=", *f.PrecioMin)
	}
	if f.PrecioMax != nil {
		wb.AddCompare("precio", "<=", *f.PrecioMax)
	}
	if f.StockMin != nil {
		wb.AddCompare("stock", ">=", *f.StockMin)
	}
	whereClause, args := wb.Build()

	var total int64
	countQuery := "SELECT COUNT(*) FROM products" + whereClause
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, Internal("no se pudieron contar los productos", err)
	}

	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf(
		"SELECT %s FROM products%s ORDER BY id LIMIT $%d OFFSET $%d",
		productColumns, whereClause, argIndex, argIndex+1,
	)
	args = append(args, f.Limit, f.Skip)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, Internal("no se pudieron listar los productos", err)
	}
	defer rows.Close()

	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, Internal("no se pudieron listar los productos", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, Internal("no se pudieron listar los productos", err)
	}

	return items, total, nil
}

// Get returns a product by id, NotFound when it does not exist.
func (s *ProductStore) Get(ctx context.Context, id int64) (*Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns)
	p, err := scanProduct(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Producto con ID %d no encontrado", id)
	}
	if err != nil {
		return nil, Internal("no se pudo obtener el producto", err)
	}
	return p, nil
}

// Create inserts a validated product and returns the stored row.
func (s *ProductStore) Create(ctx context.Context, in ProductInput) (*Product, error) {
	query := fmt.Sprintf(`INSERT INTO products (nombre, descripcion, precio, stock, categoria)
		VALUES ($1, $2, $3, $4, $5) RETURNING %s`, productColumns)

	p, err := scanProduct(s.db.QueryRow(ctx, query,
		in.Nombre, in.Descripcion, in.Precio, in.Stock, in.Categoria))
	if err != nil {
		return nil, Internal("no se pudo crear el producto", err)
	}
	return p, nil
}

// Update persists the full field set of an already-merged product and
// stamps updated_at.
func (s *ProductStore) Update(ctx context.Context, p *Product) (*Product, error) {
	query := fmt.Sprintf(`UPDATE products
		SET nombre = $1, descripcion = $2, precio = $3, stock = $4, categoria = $5, updated_at = now()
		WHERE id = $6 RETURNING %s`, productColumns)

	updated, err := scanProduct(s.db.QueryRow(ctx, query,
		p.Nombre, p.Descripcion, p.Precio, p.Stock, p.Categoria, p.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Producto con ID %d no encontrado", p.ID)
	}
	if err != nil {
		return nil, Internal("no se pudo actualizar el producto", err)
	}
	return updated, nil
}

// Delete removes a product, NotFound when no row matched.
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return Internal("no se pudo eliminar el producto", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("Producto con ID %d no encontrado", id)
	}
	return nil
}

// BulkCreate inserts a batch of validated products using the COPY protocol.
// Used only by the import pipeline.
func (s *ProductStore) BulkCreate(ctx context.Context, batch []ProductInput) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([][]any, len(batch))
	for i, in := range batch {
		rows[i] = []any{in.Nombre, in.Descripcion, in.Precio, in.Stock, in.Categoria}
	}

	_, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"nombre", "descripcion", "precio", "stock", "categoria"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return Internal("no se pudieron insertar los productos", err)
	}
	return nil
}

// AllForExport returns every product ordered by id. Exports are unpaginated.
func (s *ProductStore) AllForExport(ctx context.Context) ([]Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products ORDER BY id", productColumns)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, Internal("no se pudieron exportar los productos", err)
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, Internal("no se pudieron exportar los productos", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("no se pudieron exportar los productos", err)
	}
	return items, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
