package core

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// Product field invariants. The same rules apply to API writes and to
// imported rows; error messages are Spanish like the rest of the contract.
const (
	nombreMinLen    = 3
	nombreMaxLen    = 255
	categoriaMinLen = 1
	categoriaMaxLen = 100
)

// roundPrice normalizes a price to 2 decimal places.
func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// validateRow validates one import row and builds the product input.
// Expected failures come back as a tagged RowError naming the first
// offending field; the pipeline records it and moves on.
func validateRow(row []string, cols map[string]int, rowNum int) (ProductInput, *RowError) {
	fail := func(field, value, msg string) (ProductInput, *RowError) {
		return ProductInput{}, &RowError{Row: rowNum, Field: field, Value: value, Error: msg}
	}

	nombre := cell(row, cols["nombre"])
	if n := utf8.RuneCountInString(nombre); n < nombreMinLen || n > nombreMaxLen {
		return fail("nombre", nombre,
			fmt.Sprintf("El nombre debe tener entre %d y %d caracteres", nombreMinLen, nombreMaxLen))
	}

	rawPrecio := cell(row, cols["precio"])
	precio, err := strconv.ParseFloat(rawPrecio, 64)
	// ParseFloat accepts "NaN" and "Inf"; neither may reach the database.
	if err != nil || math.IsNaN(precio) || math.IsInf(precio, 0) {
		return fail("precio", rawPrecio, "El precio debe ser un número válido")
	}
	if precio <= 0 {
		return fail("precio", rawPrecio, "El precio debe ser mayor a 0")
	}

	rawStock := cell(row, cols["stock"])
	stock, err := strconv.Atoi(rawStock)
	if err != nil {
		return fail("stock", rawStock, "El stock debe ser un número entero")
	}
	if stock < 0 {
		return fail("stock", rawStock, "El stock no puede ser negativo")
	}

	categoria := cell(row, cols["categoria"])
	if n := utf8.RuneCountInString(categoria); n < categoriaMinLen || n > categoriaMaxLen {
		return fail("categoria", categoria,
			fmt.Sprintf("La categoría debe tener entre %d y %d caracteres", categoriaMinLen, categoriaMaxLen))
	}

	input := ProductInput{
		Nombre:    nombre,
		Precio:    roundPrice(precio),
		Stock:     stock,
		Categoria: categoria,
	}

	// Empty descripcion becomes NULL downstream.
	if d := cell(row, cols["descripcion"]); d != "" {
		input.Descripcion = &d
	}

	return input, nil
}

// ValidateInput checks a product payload from the API. Returns a
// BadRequest error naming the first invalid field.
func ValidateInput(in *ProductInput) error {
	if n := utf8.RuneCountInString(in.Nombre); n < nombreMinLen || n > nombreMaxLen {
		return BadRequest("El nombre debe tener entre %d y %d caracteres", nombreMinLen, nombreMaxLen)
	}
	if math.IsNaN(in.Precio) || math.IsInf(in.Precio, 0) {
		return BadRequest("El precio debe ser un número válido")
	}
	if in.Precio <= 0 {
		return BadRequest("El precio debe ser mayor a 0")
	}
	if in.Stock < 0 {
		return BadRequest("El stock no puede ser negativo")
	}
	if n := utf8.RuneCountInString(in.Categoria); n < categoriaMinLen || n > categoriaMaxLen {
		return BadRequest("La categoría debe tener entre %d y %d caracteres", categoriaMinLen, categoriaMaxLen)
	}

	in.Precio = roundPrice(in.Precio)
	if in.Descripcion != nil && *in.Descripcion == "" {
		in.Descripcion = nil
	}
	return nil
}

// applyUpdate merges a partial update into an existing product and
// re-validates the result.
func applyUpdate(p *Product, u *ProductUpdate) error {
	if u.Nombre != nil {
		p.Nombre = *u.Nombre
	}
	if u.Descripcion != nil {
		if *u.Descripcion == "" {
			p.Descripcion = nil
		} else {
			p.Descripcion = u.Descripcion
		}
	}
	if u.Precio != nil {
		p.Precio = *u.Precio
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Categoria != nil {
		p.Categoria = *u.Categoria
	}

	in := ProductInput{
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio,
		Stock:       p.Stock,
		Categoria:   p.Categoria,
	}
	if err := ValidateInput(&in); err != nil {
		return err
	}
	p.Precio = in.Precio
	p.Descripcion = in.Descripcion
	return nil
}
