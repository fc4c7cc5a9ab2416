package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/core/resultset"
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

func setupProducts(t *testing.T) *Adapter {
	t.Helper()
	ctx := context.Background()

	a, err := NewAdapter(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	t.Cleanup(func() { a.Close(ctx) })

	stmts := []string{
		`CREATE TABLE products (
			id INTEGER PRIMARY KEY,
			name TEXT,
			price MONEY,
			rate DECIMAL(10,2),
			weight REAL,
			active BOOLEAN,
			data BLOB
		)`,
		`INSERT INTO products VALUES (1, 'Binford Lawnmower', 4100.00, 19.99, 12.5, 1, x'CAFE')`,
		`INSERT INTO products VALUES (2, 'Gizmo', 12.3456, -0.5, 0.25, 0, NULL)`,
		`INSERT INTO products VALUES (3, NULL, NULL, NULL, NULL, NULL, NULL)`,
	}
	for _, s := range stmts {
		if _, err := a.DB.ExecContext(ctx, s); err != nil {
			t.Fatalf("Failed to execute %q: %v", s, err)
		}
	}
	return a
}

func TestFieldFromColumn(t *testing.T) {
	tests := []struct {
		col  adapters.ColumnInfo
		want tds.Field
	}{
		{adapters.ColumnInfo{Name: "id", Type: "INTEGER"}, tds.Field{Name: "id", Type: tds.TypeIntN, Length: 8}},
		{adapters.ColumnInfo{Name: "p", Type: "MONEY"}, tds.Field{Name: "p", Type: tds.TypeMoneyN, Length: 8}},
		{adapters.ColumnInfo{Name: "p", Type: "SMALLMONEY"}, tds.Field{Name: "p", Type: tds.TypeMoneyN, Length: 4}},
		{adapters.ColumnInfo{Name: "r", Type: "DECIMAL", Precision: 10, Scale: 2}, tds.Field{Name: "r", Type: tds.TypeNumericN, Precision: 10, Scale: 2}},
		{adapters.ColumnInfo{Name: "r", Type: "NUMERIC"}, tds.Field{Name: "r", Type: tds.TypeFltN, Length: 8}},
		{adapters.ColumnInfo{Name: "f", Type: "BOOLEAN"}, tds.Field{Name: "f", Type: tds.TypeBitN, Length: 1}},
		{adapters.ColumnInfo{Name: "s", Type: "VARCHAR", Length: 40}, tds.Field{Name: "s", Type: tds.TypeNVarchar, Length: 40}},
		{adapters.ColumnInfo{Name: "expr", Type: ""}, tds.Field{Name: "expr", Type: tds.TypeNVarchar}},
	}

	for _, tt := range tests {
		t.Run(tt.col.Name+"/"+tt.col.Type, func(t *testing.T) {
			if got := FieldFromColumn(tt.col); got != tt.want {
				t.Errorf("FieldFromColumn(%+v) = %+v, want %+v", tt.col, got, tt.want)
			}
		})
	}
}

func TestQueryThroughBufferedCursor(t *testing.T) {
	ctx := context.Background()
	a := setupProducts(t)

	rs, err := adapters.Open(ctx, a, "SELECT id, name, price, rate, weight, active, data FROM products ORDER BY id")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rs.Close()

	rows, err := resultset.Collect(rs)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	names := []string{"id", "name", "price", "rate", "weight", "active", "data"}
	want := []tds.Row{
		tds.NewRow(names, []tds.Value{
			tds.Int(1), tds.Text("Binford Lawnmower"), tds.Decimal("4100.00000"),
			tds.Float(19.99), tds.Float(12.5), tds.Int(1), tds.Text("0xCAFE"),
		}),
		tds.NewRow(names, []tds.Value{
			tds.Int(2), tds.Text("Gizmo"), tds.Decimal("12.34560"),
			tds.Float(-0.5), tds.Float(0.25), tds.Int(0), tds.Null(),
		}),
		tds.NewRow(names, []tds.Value{
			tds.Int(3), tds.Null(), tds.Null(), tds.Null(), tds.Null(), tds.Null(), tds.Null(),
		}),
	}
	for i := range want {
		if !rows[i].Equal(want[i]) {
			t.Errorf("Row %d = %v, want %v", i, rows[i].Map(), want[i].Map())
		}
	}

	// seek back replays buffered rows without touching the database
	if err := rs.Seek(0); err != nil {
		t.Fatalf("Seek(0) failed: %v", err)
	}
	row, ok, err := rs.Next()
	if err != nil || !ok {
		t.Fatalf("Next after seek = %v, %v", ok, err)
	}
	if !row.Equal(want[0]) {
		t.Errorf("Replayed row = %v", row.Map())
	}

	err = rs.Seek(3)
	var seekErr *resultset.SeekError
	if !errors.As(err, &seekErr) || seekErr.Error() != "cannot seek to offset 3, out of bounds" {
		t.Errorf("Seek(3) = %v, expected out of bounds", err)
	}
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	a := setupProducts(t)

	if a.GetDatabaseType() != "sqlite" {
		t.Errorf("GetDatabaseType() = %q", a.GetDatabaseType())
	}
	version, err := a.GetDatabaseVersion(ctx)
	if err != nil || version == "" {
		t.Errorf("GetDatabaseVersion() = %q, %v", version, err)
	}

	names, err := a.GetTableNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "products" {
		t.Errorf("GetTableNames() = %v", names)
	}

	exists, err := a.TableExists(ctx, "products")
	if err != nil || !exists {
		t.Errorf("TableExists(products) = %v, %v", exists, err)
	}
	exists, err = a.TableExists(ctx, "missing")
	if err != nil || exists {
		t.Errorf("TableExists(missing) = %v, %v", exists, err)
	}
}

func TestQueryError(t *testing.T) {
	ctx := context.Background()
	a := setupProducts(t)

	if _, err := a.Query(ctx, "SELECT * FROM nowhere"); err == nil {
		t.Error("Expected error for missing table")
	}
}
