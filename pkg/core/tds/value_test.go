package tds

import (
	"encoding/json"
	"math"
	"testing"
)

func TestValue_Accessors(t *testing.T) {
	if _, ok := Int(1).Float(); ok {
		t.Error("Integer must not report a float")
	}
	if n, ok := Int(42).Int(); !ok || n != 42 {
		t.Errorf("Int(42).Int() = %d, %v", n, ok)
	}
	if s, ok := Decimal("1.50000").Decimal(); !ok || s != "1.50000" {
		t.Errorf("Decimal accessor = %q, %v", s, ok)
	}
	if s, ok := Text("x").Text(); !ok || s != "x" {
		t.Errorf("Text accessor = %q, %v", s, ok)
	}
	if !(Value{}).IsNull() {
		t.Error("zero Value must be NULL")
	}
	if Decimal("1").Interface() != "1" || Float(0.5).Interface() != 0.5 || Null().Interface() != nil {
		t.Error("Interface() returned unexpected values")
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	values := []Value{Null(), Int(-7), Float(0.5), Decimal("4100.00000"), Text("a\"b")}
	data, err := json.Marshal(values)
	if err != nil {
		t.Fatalf("Failed to marshal values: %v", err)
	}
	expected := `[null,-7,0.5,"4100.00000","a\"b"]`
	if string(data) != expected {
		t.Errorf("JSON = %s, want %s", data, expected)
	}
}

func TestValue_MarshalJSONNonFinite(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"nan", math.NaN(), `"NaN"`},
		{"positive infinity", math.Inf(1), `"+Inf"`},
		{"negative infinity", math.Inf(-1), `"-Inf"`},
		{"max float", math.MaxFloat64, "1.7976931348623157e+308"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(Float(tt.in))
			if err != nil {
				t.Fatalf("Marshal(%v) failed: %v", tt.in, err)
			}
			if string(data) != tt.want {
				t.Errorf("JSON = %s, want %s", data, tt.want)
			}
		})
	}

	data, err := json.Marshal(NewRow([]string{"rate", "ratio"}, []Value{Float(1), Float(math.NaN())}))
	if err != nil {
		t.Fatalf("Marshal row failed: %v", err)
	}
	if string(data) != `{"rate":1,"ratio":"NaN"}` {
		t.Errorf("row JSON = %s", data)
	}
}

func TestWireType_Parse(t *testing.T) {
	for _, name := range []string{"INT4", "varchar", " Money ", "NUMERIC"} {
		wt, err := ParseWireType(name)
		if err != nil {
			t.Fatalf("ParseWireType(%q) failed: %v", name, err)
		}
		if !wt.Known() {
			t.Errorf("ParseWireType(%q) = %s is not known", name, wt)
		}
	}
	if _, err := ParseWireType("IMAGE"); err == nil {
		t.Error("expected error for unknown type name")
	}
	if TypeMoney.String() != "MONEY" || WireType(0x99).String() != "WireType(0x99)" {
		t.Errorf("unexpected String() output: %s, %s", TypeMoney, WireType(0x99))
	}
}
