package core

import (
	"math"
	"strings"
	"testing"
)

// colsFor builds the column index map used by validateRow for a header in
// canonical order.
func colsFor() map[string]int {
	return map[string]int{
		"nombre":      0,
		"descripcion": 1,
		"precio":      2,
		"stock":       3,
		"categoria":   4,
	}
}

func TestValidateRow_Valid(t *testing.T) {
	row := []string{"Laptop Pro", "Portátil de 15 pulgadas", "999.999", "10", "Electrónica"}

	input, rowErr := validateRow(row, colsFor(), 2)
	if rowErr != nil {
		t.Fatalf("validateRow returned error: %+v", rowErr)
	}

	if input.Nombre != "Laptop Pro" {
		t.Errorf("Nombre = %q, want %q", input.Nombre, "Laptop Pro")
	}
	if input.Precio != 1000.00 {
		t.Errorf("Precio = %v, want rounded 1000.00", input.Precio)
	}
	if input.Stock != 10 {
		t.Errorf("Stock = %d, want 10", input.Stock)
	}
	if input.Descripcion == nil || *input.Descripcion != "Portátil de 15 pulgadas" {
		t.Errorf("Descripcion = %v, want set", input.Descripcion)
	}
}

func TestValidateRow_EmptyDescripcionBecomesNil(t *testing.T) {
	row := []string{"Laptop Pro", "", "10.50", "3", "Electrónica"}

	input, rowErr := validateRow(row, colsFor(), 2)
	if rowErr != nil {
		t.Fatalf("validateRow returned error: %+v", rowErr)
	}
	if input.Descripcion != nil {
		t.Errorf("Descripcion = %q, want nil for empty cell", *input.Descripcion)
	}
}

func TestValidateRow_ShortRowTolerated(t *testing.T) {
	// Excel drops trailing empty cells; missing cells behave as empty.
	row := []string{"Laptop Pro", "", "10.50"}

	_, rowErr := validateRow(row, colsFor(), 2)
	if rowErr == nil {
		t.Fatal("expected error for missing stock cell")
	}
	if rowErr.Field != "stock" {
		t.Errorf("Field = %q, want %q", rowErr.Field, "stock")
	}
}

func TestValidateRow_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		row       []string
		wantField string
		wantMsg   string
	}{
		{
			name:      "nombre too short",
			row:       []string{"ab", "", "10", "1", "Hogar"},
			wantField: "nombre",
			wantMsg:   "entre 3 y 255",
		},
		{
			name:      "nombre too long",
			row:       []string{strings.Repeat("a", 256), "", "10", "1", "Hogar"},
			wantField: "nombre",
			wantMsg:   "entre 3 y 255",
		},
		{
			name:      "precio not a number",
			row:       []string{"Mesa", "", "gratis", "1", "Hogar"},
			wantField: "precio",
			wantMsg:   "número válido",
		},
		{
			name:      "precio NaN",
			row:       []string{"Mesa", "", "NaN", "1", "Hogar"},
			wantField: "precio",
			wantMsg:   "número válido",
		},
		{
			name:      "precio infinite",
			row:       []string{"Mesa", "", "Inf", "1", "Hogar"},
			wantField: "precio",
			wantMsg:   "número válido",
		},
		{
			name:      "precio negative infinite",
			row:       []string{"Mesa", "", "-Inf", "1", "Hogar"},
			wantField: "precio",
			wantMsg:   "número válido",
		},
		{
			name:      "precio zero",
			row:       []string{"Mesa", "", "0", "1", "Hogar"},
			wantField: "precio",
			wantMsg:   "mayor a 0",
		},
		{
			name:      "precio negative",
			row:       []string{"Mesa", "", "-5", "1", "Hogar"},
			wantField: "precio",
			wantMsg:   "mayor a 0",
		},
		{
			name:      "stock not an integer",
			row:       []string{"Mesa", "", "10", "1.5", "Hogar"},
			wantField: "stock",
			wantMsg:   "número entero",
		},
		{
			name:      "stock negative",
			row:       []string{"Mesa", "", "10", "-1", "Hogar"},
			wantField: "stock",
			wantMsg:   "negativo",
		},
		{
			name:      "categoria empty",
			row:       []string{"Mesa", "", "10", "1", ""},
			wantField: "categoria",
			wantMsg:   "entre 1 y 100",
		},
		{
			name:      "categoria too long",
			row:       []string{"Mesa", "", "10", "1", strings.Repeat("c", 101)},
			wantField: "categoria",
			wantMsg:   "entre 1 y 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rowErr := validateRow(tt.row, colsFor(), 5)
			if rowErr == nil {
				t.Fatal("expected row error, got nil")
			}
			if rowErr.Row != 5 {
				t.Errorf("Row = %d, want 5", rowErr.Row)
			}
			if rowErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", rowErr.Field, tt.wantField)
			}
			if !strings.Contains(rowErr.Error, tt.wantMsg) {
				t.Errorf("Error = %q, want it to contain %q", rowErr.Error, tt.wantMsg)
			}
		})
	}
}

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{10.555, 10.56},
		{10.554, 10.55},
		{999.999, 1000.00},
		{0.01, 0.01},
		{100, 100},
	}

	for _, tt := range tests {
		if got := roundPrice(tt.in); got != tt.want {
			t.Errorf("roundPrice(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateInput_NormalizesPrecio(t *testing.T) {
	in := &ProductInput{Nombre: "Silla", Precio: 19.999, Stock: 2, Categoria: "Hogar"}
	if err := ValidateInput(in); err != nil {
		t.Fatalf("ValidateInput error = %v", err)
	}
	if in.Precio != 20.00 {
		t.Errorf("Precio = %v, want 20.00 after rounding", in.Precio)
	}
}

func TestValidateInput_Invalid(t *testing.T) {
	desc := ""
	tests := []struct {
		name string
		in   ProductInput
	}{
		{"short nombre", ProductInput{Nombre: "ab", Precio: 1, Stock: 0, Categoria: "x"}},
		{"zero precio", ProductInput{Nombre: "abc", Precio: 0, Stock: 0, Categoria: "x"}},
		{"NaN precio", ProductInput{Nombre: "abc", Precio: math.NaN(), Stock: 0, Categoria: "x"}},
		{"infinite precio", ProductInput{Nombre: "abc", Precio: math.Inf(1), Stock: 0, Categoria: "x"}},
		{"negative stock", ProductInput{Nombre: "abc", Precio: 1, Stock: -1, Categoria: "x"}},
		{"empty categoria", ProductInput{Nombre: "abc", Precio: 1, Stock: 0, Categoria: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(&tt.in)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if KindOf(err) != KindBadRequest {
				t.Errorf("KindOf = %v, want %v", KindOf(err), KindBadRequest)
			}
		})
	}

	// Empty descripcion pointer degrades to nil
	in := ProductInput{Nombre: "abc", Descripcion: &desc, Precio: 1, Stock: 0, Categoria: "x"}
	if err := ValidateInput(&in); err != nil {
		t.Fatalf("ValidateInput error = %v", err)
	}
	if in.Descripcion != nil {
		t.Error("empty Descripcion should become nil")
	}
}

func TestApplyUpdate(t *testing.T) {
	desc := "vieja"
	p := &Product{ID: 1, Nombre: "Mesa grande", Descripcion: &desc, Precio: 50, Stock: 5, Categoria: "Hogar"}

	newPrecio := 75.555
	newStock := 8
	u := &ProductUpdate{Precio: &newPrecio, Stock: &newStock}

	if err := applyUpdate(p, u); err != nil {
		t.Fatalf("applyUpdate error = %v", err)
	}

	if p.Precio != 75.56 {
		t.Errorf("Precio = %v, want 75.56", p.Precio)
	}
	if p.Stock != 8 {
		t.Errorf("Stock = %d, want 8", p.Stock)
	}
	if p.Nombre != "Mesa grande" {
		t.Errorf("Nombre changed unexpectedly: %q", p.Nombre)
	}
	if p.Descripcion == nil || *p.Descripcion != "vieja" {
		t.Errorf("Descripcion changed unexpectedly: %v", p.Descripcion)
	}
}

func TestApplyUpdate_InvalidMergeRejected(t *testing.T) {
	p := &Product{ID: 1, Nombre: "Mesa grande", Precio: 50, Stock: 5, Categoria: "Hogar"}

	bad := -1.0
	u := &ProductUpdate{Precio: &bad}

	if err := applyUpdate(p, u); err == nil {
		t.Fatal("expected error for negative precio")
	}
}
