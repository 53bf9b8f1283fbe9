package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/duostore/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"ProductID", id.NewProductID, "prod_"},
		{"CategoryID", id.NewCategoryID, "cat_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"ProductID", id.NewProductID, id.ParseProductID},
		{"CategoryID", id.NewCategoryID, id.ParseCategoryID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseProductID(id.NewCategoryID().String()); err == nil {
		t.Error("ParseProductID accepted a category id")
	}
	if _, err := id.ParseCategoryID(id.NewProductID().String()); err == nil {
		t.Error("ParseCategoryID accepted a product id")
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "prod_", "not an id"} {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestJSON(t *testing.T) {
	type doc struct {
		ID id.ID `json:"id"`
	}
	original := doc{ID: id.NewProductID()}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var restored doc
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if restored.ID.String() != original.ID.String() {
		t.Errorf("mismatch: %q != %q", restored.ID, original.ID)
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewCategoryID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var nilID id.ID
	if val, _ := nilID.Value(); val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}
	if err := scanned.Scan(nil); err != nil || !scanned.IsNil() {
		t.Errorf("Scan(nil) = %v, nil=%v", err, scanned.IsNil())
	}
	if err := scanned.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestUniqueness(t *testing.T) {
	if id.NewProductID().String() == id.NewProductID().String() {
		t.Error("two consecutive NewProductID() calls returned the same ID")
	}
}
