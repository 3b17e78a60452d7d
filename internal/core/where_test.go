package core

import (
	"testing"
)

func TestNewWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()

	if wb == nil {
		t.Fatal("NewWhereBuilder returned nil")
	}
	if wb.argIndex != 1 {
		t.Errorf("expected argIndex to be 1, got %d", wb.argIndex)
	}
	if len(wb.conditions) != 0 {
		t.Errorf("expected empty conditions, got %d", len(wb.conditions))
	}
	if len(wb.args) != 0 {
		t.Errorf("expected empty args, got %d", len(wb.args))
	}
}

func TestWhereBuilder_Build_Empty(t *testing.T) {
	wb := NewWhereBuilder()
	whereClause, args := wb.Build()

	if whereClause != "" {
		t.Errorf("expected empty string for no conditions, got %q", whereClause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
}

func TestWhereBuilder_Add_SingleCondition(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("categoria", "electronics")

	whereClause, args := wb.Build()

	expectedClause := " WHERE categoria = $1"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
	if args[0] != "electronics" {
		t.Errorf("expected arg 'electronics', got %v", args[0])
	}
}

func TestWhereBuilder_Add_MultipleConditions(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("categoria", "electronics")
	wb.AddILike("nombre", "lap")

	whereClause, args := wb.Build()

	expectedClause := " WHERE categoria = $1 AND nombre ILIKE $2"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0] != "electronics" || args[1] != "%lap%" {
		t.Errorf("expected args ['electronics', '%%lap%%'], got %v", args)
	}
}

func TestWhereBuilder_Add_EmptyValue_Skipped(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("categoria", "")
	wb.AddILike("nombre", "")
	wb.Add("categoria", "books")

	whereClause, args := wb.Build()

	expectedClause := " WHERE categoria = $1"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
}

func TestWhereBuilder_AddCompare(t *testing.T) {
	min := 10.5
	max := 99.99
	stock := 3

	wb := NewWhereBuilder()
	wb.AddCompare("precio", ">=", min)
	wb.AddCompare("precio", "<=", max)
	wb.AddCompare("stock", ">=", stock)

	whereClause, args := wb.Build()

	expectedClause := " WHERE precio >= $1 AND precio <= $2 AND stock >= $3"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[0] != min || args[1] != max || args[2] != stock {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestWhereBuilder_AddCompare_NilSkipped(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddCompare("precio", ">=", nil)

	whereClause, args := wb.Build()
	if whereClause != "" || args != nil {
		t.Errorf("expected nil comparison to be skipped, got %q / %v", whereClause, args)
	}
}

func TestWhereBuilder_NextArgIndex(t *testing.T) {
	wb := NewWhereBuilder()
	if wb.NextArgIndex() != 1 {
		t.Errorf("expected NextArgIndex 1, got %d", wb.NextArgIndex())
	}

	wb.Add("categoria", "toys")
	wb.AddCompare("stock", ">=", 1)

	if wb.NextArgIndex() != 3 {
		t.Errorf("expected NextArgIndex 3 after two conditions, got %d", wb.NextArgIndex())
	}
}
