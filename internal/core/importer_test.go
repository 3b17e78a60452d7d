package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeProductRepo records calls so pipeline tests can assert batching
// behavior without a database.
type fakeProductRepo struct {
	products   []Product
	batches    [][]ProductInput
	bulkErr    error
	nextID     int64
	listTotal  int64
	lastFilter ProductFilter
}

func (f *fakeProductRepo) List(_ context.Context, filter ProductFilter) ([]Product, int64, error) {
	f.lastFilter = filter
	return f.products, f.listTotal, nil
}

func (f *fakeProductRepo) Get(_ context.Context, id int64) (*Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, NotFound("Producto con ID %d no encontrado", id)
}

func (f *fakeProductRepo) Create(_ context.Context, in ProductInput) (*Product, error) {
	f.nextID++
	p := Product{
		ID:        f.nextID,
		Nombre:    in.Nombre,
		Precio:    in.Precio,
		Stock:     in.Stock,
		Categoria: in.Categoria,
		CreatedAt: time.Now(),
	}
	p.Descripcion = in.Descripcion
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *Product) (*Product, error) {
	for i := range f.products {
		if f.products[i].ID == p.ID {
			now := time.Now()
			p.UpdatedAt = &now
			f.products[i] = *p
			return p, nil
		}
	}
	return nil, NotFound("Producto con ID %d no encontrado", p.ID)
}

func (f *fakeProductRepo) Delete(_ context.Context, id int64) error {
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return NotFound("Producto con ID %d no encontrado", id)
}

func (f *fakeProductRepo) BulkCreate(_ context.Context, batch []ProductInput) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	copied := make([]ProductInput, len(batch))
	copy(copied, batch)
	f.batches = append(f.batches, copied)
	return nil
}

func (f *fakeProductRepo) AllForExport(_ context.Context) ([]Product, error) {
	return f.products, nil
}

// fakeLogRepo records import log lifecycle calls.
type fakeLogRepo struct {
	created  []string
	finished map[int64]ImportLogFinish
	logs     map[int64]*ImportLog
	nextID   int64
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{
		finished: make(map[int64]ImportLogFinish),
		logs:     make(map[int64]*ImportLog),
	}
}

func (f *fakeLogRepo) Create(_ context.Context, filename string) (*ImportLog, error) {
	f.nextID++
	f.created = append(f.created, filename)
	l := &ImportLog{ID: f.nextID, Filename: filename, Status: StatusProcessing, StartedAt: time.Now()}
	f.logs[l.ID] = l
	return l, nil
}

func (f *fakeLogRepo) Finish(_ context.Context, id int64, fin ImportLogFinish) error {
	if _, ok := f.logs[id]; !ok {
		return NotFound("Registro de importación %d no encontrado", id)
	}
	f.finished[id] = fin
	l := f.logs[id]
	l.Status = fin.Status
	l.TotalRows = fin.TotalRows
	l.SuccessfulRows = fin.SuccessfulRows
	l.FailedRows = fin.FailedRows
	now := time.Now()
	l.CompletedAt = &now
	return nil
}

func (f *fakeLogRepo) List(_ context.Context, _, _ int) ([]ImportLog, int64, error) {
	var items []ImportLog
	for _, l := range f.logs {
		items = append(items, *l)
	}
	return items, int64(len(items)), nil
}

func (f *fakeLogRepo) Get(_ context.Context, id int64) (*ImportLog, error) {
	l, ok := f.logs[id]
	if !ok {
		return nil, NotFound("Registro de importación %d no encontrado", id)
	}
	copied := *l
	return &copied, nil
}

func newTestService(products *fakeProductRepo, logs *fakeLogRepo) *Service {
	return &Service{
		products:          products,
		logs:              logs,
		batchSize:         1000,
		maxResponseErrors: 100,
		defaultLimit:      50,
		maxLimit:          1000,
	}
}

const csvHeader = "nombre,descripcion,precio,stock,categoria\n"

func TestImportProducts_RejectedExtension_NoLog(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)

	_, err := svc.ImportProducts(context.Background(), "products.txt", []byte("data"))
	if err == nil {
		t.Fatal("expected error for disallowed extension")
	}
	if KindOf(err) != KindBadRequest {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindBadRequest)
	}
	if len(logs.created) != 0 {
		t.Errorf("no import log should be created for rejected files, got %d", len(logs.created))
	}
}

func TestImportProducts_PartialFailure(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)

	data := csvHeader +
		"Laptop Pro,portátil,999.99,10,Electrónica\n" +
		"Mouse inalámbrico,,25.50,100,Electrónica\n" +
		"Teclado,,-5,20,Electrónica\n"

	summary, err := svc.ImportProducts(context.Background(), "products.csv", []byte(data))
	if err != nil {
		t.Fatalf("ImportProducts error = %v", err)
	}

	if summary.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", summary.TotalRows)
	}
	if summary.SuccessfulRows != 2 {
		t.Errorf("SuccessfulRows = %d, want 2", summary.SuccessfulRows)
	}
	if summary.FailedRows != 1 {
		t.Errorf("FailedRows = %d, want 1", summary.FailedRows)
	}
	if summary.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", summary.Status, StatusCompleted)
	}

	if len(summary.Errors) != 1 {
		t.Fatalf("Errors = %d, want 1", len(summary.Errors))
	}
	// Header is line 1, so the third data row is spreadsheet row 4.
	if summary.Errors[0].Row != 4 {
		t.Errorf("error Row = %d, want 4", summary.Errors[0].Row)
	}
	if summary.Errors[0].Field != "precio" {
		t.Errorf("error Field = %q, want precio", summary.Errors[0].Field)
	}

	// The two valid rows were persisted in a single final flush.
	if len(products.batches) != 1 || len(products.batches[0]) != 2 {
		t.Errorf("batches = %v, want one batch of 2", products.batches)
	}

	fin, ok := logs.finished[summary.LogID]
	if !ok {
		t.Fatal("import log was not finalized")
	}
	if fin.Status != StatusCompleted || fin.SuccessfulRows != 2 || fin.FailedRows != 1 {
		t.Errorf("finalized log = %+v", fin)
	}
}

func TestImportProducts_BatchFlushing(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)
	svc.batchSize = 2

	var b strings.Builder
	b.WriteString(csvHeader)
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "Producto %d,,10.00,1,Hogar\n", i)
	}

	summary, err := svc.ImportProducts(context.Background(), "products.csv", []byte(b.String()))
	if err != nil {
		t.Fatalf("ImportProducts error = %v", err)
	}
	if summary.SuccessfulRows != 5 {
		t.Errorf("SuccessfulRows = %d, want 5", summary.SuccessfulRows)
	}

	// 5 valid rows at batch size 2: two full flushes plus the remainder.
	if len(products.batches) != 3 {
		t.Fatalf("flush count = %d, want 3", len(products.batches))
	}
	sizes := []int{len(products.batches[0]), len(products.batches[1]), len(products.batches[2])}
	if sizes[0] != 2 || sizes[1] != 2 || sizes[2] != 1 {
		t.Errorf("batch sizes = %v, want [2 2 1]", sizes)
	}
}

func TestImportProducts_ExactBatchMultiple_NoEmptyFlush(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)
	svc.batchSize = 2

	data := csvHeader +
		"Producto A,,10.00,1,Hogar\n" +
		"Producto B,,10.00,1,Hogar\n"

	if _, err := svc.ImportProducts(context.Background(), "products.csv", []byte(data)); err != nil {
		t.Fatalf("ImportProducts error = %v", err)
	}

	if len(products.batches) != 1 {
		t.Errorf("flush count = %d, want exactly 1 (no empty trailing flush)", len(products.batches))
	}
}

func TestImportProducts_MissingColumns_LogFailed(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)

	data := "nombre,precio,stock\nLaptop,10,1\n"

	_, err := svc.ImportProducts(context.Background(), "products.csv", []byte(data))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if KindOf(err) != KindBadRequest {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindBadRequest)
	}
	if !strings.Contains(UserMessage(err), "descripcion") || !strings.Contains(UserMessage(err), "categoria") {
		t.Errorf("message should list missing columns: %q", UserMessage(err))
	}

	if len(logs.created) != 1 {
		t.Fatalf("log created = %d, want 1", len(logs.created))
	}
	fin, ok := logs.finished[1]
	if !ok {
		t.Fatal("import log was not finalized")
	}
	if fin.Status != StatusFailed {
		t.Errorf("log status = %q, want %q", fin.Status, StatusFailed)
	}
	if len(products.batches) != 0 {
		t.Errorf("no products should be inserted, got %d batches", len(products.batches))
	}
}

func TestImportProducts_UnparseableExcel_LogFailed(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)

	_, err := svc.ImportProducts(context.Background(), "products.xlsx", []byte("garbage"))
	if err == nil {
		t.Fatal("expected error for unparseable file")
	}
	if KindOf(err) != KindInternal {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindInternal)
	}

	fin, ok := logs.finished[1]
	if !ok {
		t.Fatal("import log was not finalized")
	}
	if fin.Status != StatusFailed {
		t.Errorf("log status = %q, want %q", fin.Status, StatusFailed)
	}
}

func TestImportProducts_BulkInsertFailure_LogFailed(t *testing.T) {
	products := &fakeProductRepo{bulkErr: Internal("no se pudieron insertar los productos", nil)}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)

	data := csvHeader + "Laptop Pro,,10.00,1,Hogar\n"

	_, err := svc.ImportProducts(context.Background(), "products.csv", []byte(data))
	if err == nil {
		t.Fatal("expected error when the bulk insert fails")
	}

	fin, ok := logs.finished[1]
	if !ok {
		t.Fatal("import log was not finalized")
	}
	if fin.Status != StatusFailed {
		t.Errorf("log status = %q, want %q", fin.Status, StatusFailed)
	}
}

func TestImportProducts_ResponseErrorsCapped(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)
	svc.maxResponseErrors = 3

	var b strings.Builder
	b.WriteString(csvHeader)
	for i := 0; i < 10; i++ {
		b.WriteString("x,,10.00,1,Hogar\n") // nombre too short on every row
	}

	summary, err := svc.ImportProducts(context.Background(), "products.csv", []byte(b.String()))
	if err != nil {
		t.Fatalf("ImportProducts error = %v", err)
	}

	if summary.FailedRows != 10 {
		t.Errorf("FailedRows = %d, want 10", summary.FailedRows)
	}
	if len(summary.Errors) != 3 {
		t.Errorf("response errors = %d, want capped at 3", len(summary.Errors))
	}

	// The log keeps the full error list even when the response is capped.
	fin := logs.finished[summary.LogID]
	if len(fin.Errors) != 10 {
		t.Errorf("log errors = %d, want 10", len(fin.Errors))
	}
}

func TestImportProducts_NonFinitePriceRejected(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)

	data := csvHeader +
		"Laptop Pro,,NaN,5,Hogar\n" +
		"Monitor 4K,,Inf,2,Hogar\n"

	summary, err := svc.ImportProducts(context.Background(), "products.csv", []byte(data))
	if err != nil {
		t.Fatalf("ImportProducts error = %v", err)
	}

	if summary.SuccessfulRows != 0 || summary.FailedRows != 2 {
		t.Errorf("successful = %d, failed = %d, want 0 and 2",
			summary.SuccessfulRows, summary.FailedRows)
	}
	if len(products.batches) != 0 {
		t.Errorf("no products should be inserted, got %d batches", len(products.batches))
	}
	for _, e := range summary.Errors {
		if e.Field != "precio" {
			t.Errorf("error Field = %q, want precio", e.Field)
		}
	}
}

func TestImportProducts_EmptyFile(t *testing.T) {
	products := &fakeProductRepo{}
	logs := newFakeLogRepo()
	svc := newTestService(products, logs)

	_, err := svc.ImportProducts(context.Background(), "products.csv", nil)
	if err == nil {
		t.Fatal("expected error for an empty file")
	}
	if KindOf(err) != KindBadRequest {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindBadRequest)
	}
}
